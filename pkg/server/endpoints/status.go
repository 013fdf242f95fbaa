package endpoints

import (
	"net/http"

	"github.com/keysafehq/keysafe/pkg/server"
)

func RegisterStatusEndpoint(s *server.Server) {
	s.Router.HandleFunc("/status", handleStatus()).Methods("GET")
}

func handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
