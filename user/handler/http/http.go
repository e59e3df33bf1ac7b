// Package http exposes the user service over JSON/HTTP.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/abhishek622/filmrate/internal/httputil"
	"github.com/abhishek622/filmrate/user/controller/user"
	"github.com/abhishek622/filmrate/user/pkg/model"
	"go.uber.org/zap"
)

type userController interface {
	AddUser(ctx context.Context, u *model.User) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	AddFriend(ctx context.Context, id, friendID int64) (*model.User, error)
	RemoveFriend(ctx context.Context, id, friendID int64) (*model.User, error)
	ListFriends(ctx context.Context, id int64) ([]model.User, error)
	CommonFriends(ctx context.Context, id, otherID int64) ([]model.User, error)
}

// Handler defines the user HTTP handler.
type Handler struct {
	ctrl   userController
	logger *zap.Logger
}

// New creates a new user HTTP handler.
func New(ctrl userController, logger *zap.Logger) *Handler {
	return &Handler{ctrl, logger}
}

// Register attaches the user routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", h.addUser)
	mux.HandleFunc("PUT /users", h.updateUser)
	mux.HandleFunc("GET /users", h.listUsers)
	mux.HandleFunc("GET /users/{id}", h.getUser)
	mux.HandleFunc("PUT /users/{id}/friends/{friendId}", h.addFriend)
	mux.HandleFunc("DELETE /users/{id}/friends/{friendId}", h.removeFriend)
	mux.HandleFunc("GET /users/{id}/friends", h.listFriends)
	mux.HandleFunc("GET /users/{id}/friends/common/{otherId}", h.commonFriends)
}

func (h *Handler) addUser(w http.ResponseWriter, r *http.Request) {
	var u model.User
	if err := httputil.Decode(r, &u); err != nil {
		httputil.Error(w, http.StatusBadRequest, "malformed user payload")
		return
	}
	created, err := h.ctrl.AddUser(r.Context(), &u)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusCreated, created)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var u model.User
	if err := httputil.Decode(r, &u); err != nil {
		httputil.Error(w, http.StatusBadRequest, "malformed user payload")
		return
	}
	updated, err := h.ctrl.UpdateUser(r.Context(), &u)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, updated)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.ctrl.ListUsers(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.ctrl.GetUser(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, u)
}

func (h *Handler) addFriend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "friendId")
	if !ok {
		return
	}
	u, err := h.ctrl.AddFriend(r.Context(), id, friendID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, u)
}

func (h *Handler) removeFriend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "friendId")
	if !ok {
		return
	}
	u, err := h.ctrl.RemoveFriend(r.Context(), id, friendID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, u)
}

func (h *Handler) listFriends(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	friends, err := h.ctrl.ListFriends(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, friends)
}

func (h *Handler) commonFriends(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	otherID, ok := pathID(w, r, "otherId")
	if !ok {
		return
	}
	common, err := h.ctrl.CommonFriends(r.Context(), id, otherID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.Respond(w, http.StatusOK, common)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		httputil.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, user.ErrValidation):
		httputil.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("user handler failure", zap.Error(err))
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
