// Package http exposes the film service over JSON/HTTP, including the
// genre and MPA reference endpoints.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/abhishek622/filmrate/film/controller/film"
	"github.com/abhishek622/filmrate/film/pkg/model"
	"github.com/abhishek622/filmrate/internal/httputil"
	"go.uber.org/zap"
)

const defaultPopularCount = 10

type filmController interface {
	AddFilm(ctx context.Context, f *model.Film) (*model.Film, error)
	UpdateFilm(ctx context.Context, f *model.Film) (*model.Film, error)
	GetFilm(ctx context.Context, id int64) (*model.Film, error)
	ListFilms(ctx context.Context) ([]model.Film, error)
	AddLike(ctx context.Context, filmID, userID int64) (*model.Film, error)
	RemoveLike(ctx context.Context, filmID, userID int64) (*model.Film, error)
	MostLiked(ctx context.Context, count int) ([]model.Film, error)
	ListGenres(ctx context.Context) ([]model.Genre, error)
	GetGenre(ctx context.Context, id int64) (*model.Genre, error)
	ListRatings(ctx context.Context) ([]model.Mpa, error)
	GetRating(ctx context.Context, id int64) (*model.Mpa, error)
}

// Handler defines the film HTTP handler.
type Handler struct {
	ctrl   filmController
	logger *zap.Logger
}

// New creates a new film HTTP handler.
func New(ctrl filmController, logger *zap.Logger) *Handler {
	return &Handler{ctrl, logger}
}

// Register attaches the film, genre and MPA routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /films", h.addFilm)
	mux.HandleFunc("PUT /films", h.updateFilm)
	mux.HandleFunc("GET /films", h.listFilms)
	mux.HandleFunc("GET /films/popular", h.mostLiked)
	mux.HandleFunc("GET /films/{id}", h.getFilm)
	mux.HandleFunc("PUT /films/{id}/like/{userId}", h.addLike)
	mux.HandleFunc("DELETE /films/{id}/like/{userId}", h.removeLike)
	mux.HandleFunc("GET /genres", h.listGenres)
	mux.HandleFunc("GET /genres/{id}", h.getGenre)
	mux.HandleFunc("GET /mpa", h.listRatings)
	mux.HandleFunc("GET /mpa/{id}", h.getRating)
}

func (h *Handler) addFilm(w http.ResponseWriter, r *http.Request) {
	var f model.Film
	if err := httputil.Decode(r, &f); err != nil {
		httputil.Error(w, http.StatusBadRequest, "malformed film payload")
		return
	}
	created, err := h.ctrl.AddFilm(r.Context(), &f)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusCreated, created)
}

func (h *Handler) updateFilm(w http.ResponseWriter, r *http.Request) {
	var f model.Film
	if err := httputil.Decode(r, &f); err != nil {
		httputil.Error(w, http.StatusBadRequest, "malformed film payload")
		return
	}
	updated, err := h.ctrl.UpdateFilm(r.Context(), &f)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, updated)
}

func (h *Handler) listFilms(w http.ResponseWriter, r *http.Request) {
	films, err := h.ctrl.ListFilms(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, films)
}

func (h *Handler) getFilm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.ctrl.GetFilm(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, f)
}

func (h *Handler) addLike(w http.ResponseWriter, r *http.Request) {
	filmID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	f, err := h.ctrl.AddLike(r.Context(), filmID, userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, f)
}

func (h *Handler) removeLike(w http.ResponseWriter, r *http.Request) {
	filmID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	f, err := h.ctrl.RemoveLike(r.Context(), filmID, userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, f)
}

// mostLiked serves GET /films/popular?count=N. The count parameter is
// validated here; the controller only ever sees a positive count.
func (h *Handler) mostLiked(w http.ResponseWriter, r *http.Request) {
	count := defaultPopularCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.Error(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = parsed
	}
	films, err := h.ctrl.MostLiked(r.Context(), count)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, films)
}

func (h *Handler) listGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.ctrl.ListGenres(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, genres)
}

func (h *Handler) getGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	g, err := h.ctrl.GetGenre(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, g)
}

func (h *Handler) listRatings(w http.ResponseWriter, r *http.Request) {
	mpas, err := h.ctrl.ListRatings(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, mpas)
}

func (h *Handler) getRating(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.ctrl.GetRating(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, m)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, film.ErrNotFound), errors.Is(err, film.ErrUserNotFound):
		httputil.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, film.ErrValidation):
		httputil.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("film handler failure", zap.Error(err))
		httputil.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid "+name+" path parameter")
		return 0, false
	}
	return id, true
}
