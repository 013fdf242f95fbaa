package server

import (
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/keysafehq/keysafe/pkg/keymanager"
	"github.com/keysafehq/keysafe/pkg/server/middleware"
)

type Server struct {
	Manager   *keymanager.Manager
	Store     keymanager.Store
	TokenAuth *middleware.TokenAuthenticator
	Router    *mux.Router
	DB        *gorm.DB
	srv       *http.Server
}

func NewServer(
	manager *keymanager.Manager,
	store keymanager.Store,
	tokenAuth *middleware.TokenAuthenticator,
	db *gorm.DB,
	host string,
	port string,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	router.Use(middleware.RequestID)
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Manager:   manager,
		Store:     store,
		TokenAuth: tokenAuth,
		Router:    router,
		DB:        db,
		srv:       srv,
	}
}

func (s Server) Start() error {
	return s.srv.ListenAndServe()
}

// StartWithListener serves on an existing listener. Used by tests that need
// to know the port before the server is up.
func (s Server) StartWithListener(l net.Listener) error {
	return s.srv.Serve(l)
}
