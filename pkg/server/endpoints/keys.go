package endpoints

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/keysafehq/keysafe/pkg/audit"
	"github.com/keysafehq/keysafe/pkg/keymanager"
	"github.com/keysafehq/keysafe/pkg/server"
)

func RegisterKeysEndpoints(s *server.Server) {
	router := s.Router
	manager := s.Manager

	keysRouter := router.PathPrefix("/keys").Subrouter()
	keysRouter.Use(s.TokenAuth.Middleware)

	// POST /keys/{project}/{name}/generate - Generate and store a new key
	keysRouter.HandleFunc(
		"/{project}/{name:.+}/generate",
		handleGenerateKey(manager),
	).Methods("POST")

	// POST /keys/{project}/{name}/rotate - Rotate a key (always refused)
	keysRouter.HandleFunc(
		"/{project}/{name:.+}/rotate",
		handleRotateKey(manager),
	).Methods("POST")

	// POST /keys/{project}/{name} - Store caller-supplied key material
	keysRouter.HandleFunc(
		"/{project}/{name:.+}",
		handleStoreKey(manager),
	).Methods("POST")

	// GET /keys/{project}/{name} - Fetch a key
	keysRouter.HandleFunc(
		"/{project}/{name:.+}",
		handleFetchKey(manager),
	).Methods("GET")
}

// storeOptions reads version and rotation_seconds query parameters
func storeOptions(r *http.Request) []keymanager.StoreOption {
	var opts []keymanager.StoreOption
	if version := r.URL.Query().Get("version"); version != "" {
		opts = append(opts, keymanager.WithVersion(version))
	}
	if rotation := r.URL.Query().Get("rotation_seconds"); rotation != "" {
		if seconds, err := strconv.Atoi(rotation); err == nil && seconds > 0 {
			opts = append(opts, keymanager.WithRotationIn(time.Duration(seconds)*time.Second))
		}
	}
	return opts
}

func locatorVars(r *http.Request) (project, name string, err error) {
	vars := mux.Vars(r)
	project = vars["project"]
	name, err = url.PathUnescape(vars["name"])
	return project, name, err
}

func handleGenerateKey(manager *keymanager.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, name, err := locatorVars(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		path := keymanager.Locator{Project: project, Name: name, Version: r.URL.Query().Get("version")}.Path()

		privateKey, err := manager.GeneratePrivateKey()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := manager.StorePrivateKey(r.Context(), project, name, privateKey, storeOptions(r)...); err != nil {
			audit.Log(audit.StoreEvent{
				Subject:      subject(r),
				ClientIP:     clientIP(r),
				Path:         path,
				Success:      false,
				ErrorMessage: err.Error(),
			})
			respondWithError(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		audit.Log(audit.StoreEvent{
			Subject:  subject(r),
			ClientIP: clientIP(r),
			Path:     path,
			Success:  true,
		})
		respondWithJSON(w, http.StatusCreated, map[string]string{"private_key": privateKey})
	}
}

func handleStoreKey(manager *keymanager.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		privateKey, err := io.ReadAll(r.Body)
		defer func() { _ = r.Body.Close() }()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(privateKey) == 0 {
			respondWithError(w, http.StatusBadRequest, map[string]string{"error": "request body must contain key material"})
			return
		}

		project, name, err := locatorVars(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		path := keymanager.Locator{Project: project, Name: name, Version: r.URL.Query().Get("version")}.Path()

		if err := manager.StorePrivateKey(r.Context(), project, name, string(privateKey), storeOptions(r)...); err != nil {
			audit.Log(audit.StoreEvent{
				Subject:      subject(r),
				ClientIP:     clientIP(r),
				Path:         path,
				Success:      false,
				ErrorMessage: err.Error(),
			})
			respondWithError(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		audit.Log(audit.StoreEvent{
			Subject:  subject(r),
			ClientIP: clientIP(r),
			Path:     path,
			Success:  true,
		})
		w.WriteHeader(http.StatusCreated)
	}
}

func handleFetchKey(manager *keymanager.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, name, err := locatorVars(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		version := r.URL.Query().Get("version")
		path := keymanager.Locator{Project: project, Name: name, Version: version}.Path()

		privateKey, err := manager.GetPrivateKey(r.Context(), project, name, version)
		if err != nil {
			if errors.Is(err, keymanager.ErrVersionNotFound) {
				audit.Log(audit.FetchEvent{
					Subject:      subject(r),
					ClientIP:     clientIP(r),
					Path:         path,
					Success:      false,
					ErrorMessage: "secret version not found",
				})
				respondWithError(w, http.StatusNotFound, map[string]string{"message": "secret is empty or not found."})
				return
			}

			audit.Log(audit.FetchEvent{
				Subject:      subject(r),
				ClientIP:     clientIP(r),
				Path:         path,
				Success:      false,
				ErrorMessage: err.Error(),
			})
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		audit.Log(audit.FetchEvent{
			Subject:  subject(r),
			ClientIP: clientIP(r),
			Path:     path,
			Success:  true,
		})
		_, _ = w.Write([]byte(privateKey))
	}
}

func handleRotateKey(manager *keymanager.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, name, err := locatorVars(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		_, err = manager.RotatePrivateKey(name)

		audit.Log(audit.RotateRefusedEvent{
			Subject:  subject(r),
			ClientIP: clientIP(r),
			Name:     name,
		})
		respondWithError(w, http.StatusNotImplemented, map[string]string{"error": err.Error()})
	}
}
