package endpoints

import (
	"github.com/keysafehq/keysafe/pkg/server"
)

// RegisterAll registers every endpoint on the server's router.
func RegisterAll(s *server.Server) {
	RegisterStatusEndpoint(s)
	RegisterKeysEndpoints(s)
}
