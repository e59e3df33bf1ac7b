package http_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abhishek622/filmrate/film/pkg/model"
	"github.com/abhishek622/filmrate/film/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeFilm(t *testing.T, rec *httptest.ResponseRecorder) model.Film {
	t.Helper()
	var f model.Film
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	return f
}

func addUser(t *testing.T, mux *http.ServeMux, login string) {
	t.Helper()
	body := `{"email":"` + login + `@example.com","login":"` + login + `","name":"","birthday":"1990-06-15"}`
	require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/users", body).Code)
}

const filmJSON = `{"name":"Some Film","description":"a film","releaseDate":"2012-04-23","duration":120,"mpa":{"id":1}}`

func TestAddFilm(t *testing.T) {
	mux := testutil.NewTestFilmServer()
	rec := do(mux, http.MethodPost, "/films", filmJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	f := decodeFilm(t, rec)
	assert.Equal(t, int64(1), f.ID)
	require.NotNil(t, f.Mpa)
	assert.Equal(t, "G", f.Mpa.Name)
}

func TestAddFilmValidationFailure(t *testing.T) {
	mux := testutil.NewTestFilmServer()
	long := strings.Repeat("x", 201)
	body := `{"name":"Some Film","description":"` + long + `","releaseDate":"2012-04-23","duration":120,"mpa":{"id":1}}`
	rec := do(mux, http.MethodPost, "/films", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "description")
}

func TestAddFilmMalformedBody(t *testing.T) {
	mux := testutil.NewTestFilmServer()
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/films", `{"name":`).Code)
}

func TestUpdateFilmNotFound(t *testing.T) {
	mux := testutil.NewTestFilmServer()
	body := `{"id":42,"name":"Some Film","description":"a film","releaseDate":"2012-04-23","duration":120,"mpa":{"id":1}}`
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodPut, "/films", body).Code)
}

func TestGetFilm(t *testing.T) {
	mux := testutil.NewTestFilmServer()
	require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/films", filmJSON).Code)
	assert.Equal(t, http.StatusOK, do(mux, http.MethodGet, "/films/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, "/films/42", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/films/abc", "").Code)
}

func TestLikeFlow(t *testing.T) {
	mux := testutil.NewTestFilmServer()
	addUser(t, mux, "alice")
	require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/films", filmJSON).Code)

	rec := do(mux, http.MethodPut, "/films/1/like/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeFilm(t, rec).Likes, 1)

	rec = do(mux, http.MethodDelete, "/films/1/like/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeFilm(t, rec).Likes)

	// Unknown user is reported before the film is looked at.
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodPut, "/films/1/like/42", "").Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodPut, "/films/42/like/1", "").Code)
}

func TestMostLiked(t *testing.T) {
	mux := testutil.NewTestFilmServer()
	for i := 1; i <= 3; i++ {
		addUser(t, mux, fmt.Sprintf("u%d", i))
	}
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/films", filmJSON).Code)
	}
	// Film 2 gets three likes, film 3 one, film 1 none.
	for u := 1; u <= 3; u++ {
		require.Equal(t, http.StatusOK, do(mux, http.MethodPut, fmt.Sprintf("/films/2/like/%d", u), "").Code)
	}
	require.Equal(t, http.StatusOK, do(mux, http.MethodPut, "/films/3/like/1", "").Code)

	rec := do(mux, http.MethodGet, "/films/popular?count=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var films []model.Film
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &films))
	require.Len(t, films, 2)
	assert.Equal(t, int64(2), films[0].ID)
	assert.Equal(t, int64(3), films[1].ID)

	// Default count returns everything when fewer films exist.
	rec = do(mux, http.MethodGet, "/films/popular", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &films))
	assert.Len(t, films, 3)
}

func TestMostLikedCountValidation(t *testing.T) {
	mux := testutil.NewTestFilmServer()
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/films/popular?count=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/films/popular?count=-3", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/films/popular?count=abc", "").Code)
}

func TestReferenceEndpoints(t *testing.T) {
	mux := testutil.NewTestFilmServer()

	rec := do(mux, http.MethodGet, "/genres", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var genres []model.Genre
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &genres))
	assert.Len(t, genres, 6)

	rec = do(mux, http.MethodGet, "/mpa/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m model.Mpa
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, "PG-13", m.Name)

	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, "/genres/99", "").Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, "/mpa/99", "").Code)
}
