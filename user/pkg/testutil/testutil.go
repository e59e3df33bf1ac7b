package testutil

import (
	"net/http"

	"github.com/abhishek622/filmrate/user/controller/user"
	httphandler "github.com/abhishek622/filmrate/user/handler/http"
	"github.com/abhishek622/filmrate/user/repository/memory"
	"go.uber.org/zap"
)

// NewTestUserServer creates a user HTTP server over a fresh memory
// repository to be used in tests.
func NewTestUserServer() *http.ServeMux {
	mux := http.NewServeMux()
	repo := memory.New()
	ctrl := user.New(repo, zap.NewNop())
	httphandler.New(ctrl, zap.NewNop()).Register(mux)
	return mux
}
