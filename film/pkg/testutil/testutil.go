package testutil

import (
	"net/http"

	"github.com/abhishek622/filmrate/film/controller/film"
	filmhandler "github.com/abhishek622/filmrate/film/handler/http"
	filmmemory "github.com/abhishek622/filmrate/film/repository/memory"
	"github.com/abhishek622/filmrate/user/controller/user"
	userhandler "github.com/abhishek622/filmrate/user/handler/http"
	usermemory "github.com/abhishek622/filmrate/user/repository/memory"
	"go.uber.org/zap"
)

// NewTestFilmServer creates an HTTP server with the film and user handlers
// wired over fresh memory repositories, so like scenarios can create their
// users through the API.
func NewTestFilmServer() *http.ServeMux {
	mux := http.NewServeMux()
	logger := zap.NewNop()

	userRepo := usermemory.New()
	userController := user.New(userRepo, logger)
	userhandler.New(userController, logger).Register(mux)

	filmRepo := filmmemory.New()
	filmController := film.New(filmRepo, userRepo, logger)
	filmhandler.New(filmController, logger).Register(mux)
	return mux
}
