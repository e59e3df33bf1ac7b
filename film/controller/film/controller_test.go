package film

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/abhishek622/filmrate/film/repository/memory"
	"github.com/abhishek622/filmrate/film/pkg/model"
	"github.com/abhishek622/filmrate/pkg/date"
	usermemory "github.com/abhishek622/filmrate/user/repository/memory"
	usermodel "github.com/abhishek622/filmrate/user/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	ctrl  *Controller
	repo  *memory.Repository
	users *usermemory.Repository
}

func newFixture() *fixture {
	repo := memory.New()
	users := usermemory.New()
	return &fixture{
		ctrl:  New(repo, users, zap.NewNop()),
		repo:  repo,
		users: users,
	}
}

func (f *fixture) addUser(t *testing.T) int64 {
	t.Helper()
	id, err := f.users.Put(context.Background(), &usermodel.User{
		Email:    "user@example.com",
		Login:    "user",
		Name:     "user",
		Birthday: date.New(1990, time.June, 15),
	})
	require.NoError(t, err)
	return id
}

func validFilm() *model.Film {
	return &model.Film{
		Name:        "Some Film",
		Description: "A film about things.",
		ReleaseDate: date.New(2012, time.April, 23),
		Duration:    120,
		Mpa:         &model.Mpa{ID: 1},
	}
}

func mustAddFilm(t *testing.T, c *Controller, f *model.Film) *model.Film {
	t.Helper()
	got, err := c.AddFilm(context.Background(), f)
	require.NoError(t, err)
	return got
}

func TestAddFilmAssignsIDAndKeepsFields(t *testing.T) {
	fx := newFixture()
	in := validFilm()
	got := mustAddFilm(t, fx.ctrl, in)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Description, got.Description)
	assert.Equal(t, in.ReleaseDate, got.ReleaseDate)
	assert.Equal(t, in.Duration, got.Duration)
	require.NotNil(t, got.Mpa)
	assert.Equal(t, model.Mpa{ID: 1, Name: "G"}, *got.Mpa)

	second := mustAddFilm(t, fx.ctrl, validFilm())
	assert.Equal(t, int64(2), second.ID)
}

func TestAddFilmValidation(t *testing.T) {
	fx := newFixture()
	tests := []struct {
		name   string
		mutate func(f *model.Film)
	}{
		{"empty name", func(f *model.Film) { f.Name = "" }},
		{"description of 201 characters", func(f *model.Film) { f.Description = strings.Repeat("x", 201) }},
		{"zero duration", func(f *model.Film) { f.Duration = 0 }},
		{"negative duration", func(f *model.Film) { f.Duration = -10 }},
		{"missing mpa", func(f *model.Film) { f.Mpa = nil }},
		{"release before cinema", func(f *model.Film) { f.ReleaseDate = date.New(1895, time.December, 27) }},
		{"unknown mpa id", func(f *model.Film) { f.Mpa = &model.Mpa{ID: 99} }},
		{"unknown genre id", func(f *model.Film) { f.Genres = []model.Genre{{ID: 99}} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := validFilm()
			tc.mutate(f)
			_, err := fx.ctrl.AddFilm(context.Background(), f)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAddFilmBoundaries(t *testing.T) {
	fx := newFixture()

	f := validFilm()
	f.Description = strings.Repeat("x", 200)
	_, err := fx.ctrl.AddFilm(context.Background(), f)
	assert.NoError(t, err)

	f = validFilm()
	f.ReleaseDate = date.New(1895, time.December, 28)
	_, err = fx.ctrl.AddFilm(context.Background(), f)
	assert.NoError(t, err)
}

func TestAddFilmStripsDuplicateGenres(t *testing.T) {
	fx := newFixture()
	f := validFilm()
	f.Genres = []model.Genre{{ID: 2}, {ID: 1}, {ID: 2}, {ID: 3}, {ID: 1}}
	got := mustAddFilm(t, fx.ctrl, f)
	require.Len(t, got.Genres, 3)
	assert.Equal(t, []model.Genre{
		{ID: 1, Name: "Comedy"},
		{ID: 2, Name: "Drama"},
		{ID: 3, Name: "Cartoon"},
	}, got.Genres)
}

func TestUpdateFilm(t *testing.T) {
	fx := newFixture()
	created := mustAddFilm(t, fx.ctrl, validFilm())

	replacement := validFilm()
	replacement.ID = created.ID
	replacement.Name = "Renamed"
	replacement.Genres = []model.Genre{{ID: 4}, {ID: 4}}
	got, err := fx.ctrl.UpdateFilm(context.Background(), replacement)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, []model.Genre{{ID: 4, Name: "Thriller"}}, got.Genres)
}

func TestUpdateFilmNotFound(t *testing.T) {
	fx := newFixture()
	f := validFilm()
	f.ID = 42
	_, err := fx.ctrl.UpdateFilm(context.Background(), f)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetFilmNotFound(t *testing.T) {
	fx := newFixture()
	_, err := fx.ctrl.GetFilm(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLikeLifecycle(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	userID := fx.addUser(t)
	created := mustAddFilm(t, fx.ctrl, validFilm())
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, 0, created.LikesCount())

	liked, err := fx.ctrl.AddLike(ctx, created.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikesCount())

	unliked, err := fx.ctrl.RemoveLike(ctx, created.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.LikesCount())

	// Removing again is a no-op, not an error.
	again, err := fx.ctrl.RemoveLike(ctx, created.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.LikesCount())
}

func TestAddLikeUnknownUser(t *testing.T) {
	fx := newFixture()
	created := mustAddFilm(t, fx.ctrl, validFilm())
	_, err := fx.ctrl.AddLike(context.Background(), created.ID, 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAddLikeUnknownFilm(t *testing.T) {
	fx := newFixture()
	userID := fx.addUser(t)
	_, err := fx.ctrl.AddLike(context.Background(), 42, userID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMostLiked(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	counts := []int{5, 10, 3, 900, 4}
	ids := make([]int64, len(counts))
	for i, n := range counts {
		created := mustAddFilm(t, fx.ctrl, validFilm())
		ids[i] = created.ID
		for u := 0; u < n; u++ {
			require.NoError(t, fx.repo.AddLike(ctx, created.ID, int64(u+1)))
		}
	}

	top, err := fx.ctrl.MostLiked(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, ids[3], top[0].ID)
	assert.Equal(t, ids[1], top[1].ID)
	assert.Equal(t, ids[0], top[2].ID)

	all, err := fx.ctrl.MostLiked(ctx, len(counts)+100)
	require.NoError(t, err)
	require.Len(t, all, len(counts))
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].LikesCount(), all[i].LikesCount())
	}
}

func TestMostLikedTiesKeepStoreOrder(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	first := mustAddFilm(t, fx.ctrl, validFilm())
	second := mustAddFilm(t, fx.ctrl, validFilm())

	top, err := fx.ctrl.MostLiked(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, first.ID, top[0].ID)
	assert.Equal(t, second.ID, top[1].ID)
}

func TestReferenceData(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	genres, err := fx.ctrl.ListGenres(ctx)
	require.NoError(t, err)
	assert.Len(t, genres, 6)

	g, err := fx.ctrl.GetGenre(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Comedy", g.Name)

	// Second lookup is served from the cache.
	cached, err := fx.ctrl.GetGenre(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, *g, *cached)

	_, err = fx.ctrl.GetGenre(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	mpas, err := fx.ctrl.ListRatings(ctx)
	require.NoError(t, err)
	assert.Len(t, mpas, 5)

	m, err := fx.ctrl.GetRating(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "PG-13", m.Name)

	_, err = fx.ctrl.GetRating(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}
