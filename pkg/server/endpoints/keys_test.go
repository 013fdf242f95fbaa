package endpoints_test

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keysafehq/keysafe/pkg/backend/memory"
	"github.com/keysafehq/keysafe/pkg/keymanager"
	"github.com/keysafehq/keysafe/pkg/server"
	"github.com/keysafehq/keysafe/pkg/server/endpoints"
	"github.com/keysafehq/keysafe/pkg/server/middleware"
)

func newTestServer(t *testing.T) (*server.Server, string) {
	t.Helper()

	store := memory.NewStore()
	manager := keymanager.NewManager(store)
	tokenAuth := middleware.NewTokenAuthenticator([]byte("0123456789abcdef0123456789abcdef"), time.Minute)

	s := server.NewServer(manager, store, tokenAuth, nil, "localhost", "0")
	endpoints.RegisterAll(s)

	token, err := tokenAuth.IssueToken("alice")
	require.NoError(t, err)

	return s, token
}

func doRequest(s *server.Server, token, method, target string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func TestKeysRequireAuth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, "", "GET", "/keys/p1/wallet-a", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, "", "POST", "/keys/p1/wallet-a/generate", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateKey(t *testing.T) {
	s, token := newTestServer(t)

	rec := doRequest(s, token, "POST", "/keys/p1/wallet-a/generate", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	key := resp["private_key"]
	assert.Len(t, key, 64)
	_, err := hex.DecodeString(key)
	assert.NoError(t, err)

	// the generated key is retrievable under the default version
	rec = doRequest(s, token, "GET", "/keys/p1/wallet-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, key, rec.Body.String())
}

func TestStoreAndFetchKey(t *testing.T) {
	s, token := newTestServer(t)

	rec := doRequest(s, token, "POST", "/keys/p1/wallet-a", "my-key-material")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(s, token, "GET", "/keys/p1/wallet-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "my-key-material", rec.Body.String())
}

func TestStoreKeyRejectsEmptyBody(t *testing.T) {
	s, token := newTestServer(t)

	rec := doRequest(s, token, "POST", "/keys/p1/wallet-a", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreKeyWithVersionLabel(t *testing.T) {
	s, token := newTestServer(t)

	rec := doRequest(s, token, "POST", "/keys/p1/wallet-a?version=v1", "key-v1")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doRequest(s, token, "POST", "/keys/p1/wallet-a?version=v2", "key-v2")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(s, token, "GET", "/keys/p1/wallet-a?version=v1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "key-v1", rec.Body.String())

	rec = doRequest(s, token, "GET", "/keys/p1/wallet-a?version=v2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "key-v2", rec.Body.String())

	// the default label was never written
	rec = doRequest(s, token, "GET", "/keys/p1/wallet-a", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFetchMissingKey(t *testing.T) {
	s, token := newTestServer(t)

	rec := doRequest(s, token, "GET", "/keys/p1/nonexistent", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "secret is empty or not found.", resp["message"])
}

func TestRotateKeyRefused(t *testing.T) {
	s, token := newTestServer(t)

	rec := doRequest(s, token, "POST", "/keys/p1/wallet-a", "my-key-material")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(s, token, "POST", "/keys/p1/wallet-a/rotate", "")
	require.Equal(t, http.StatusNotImplemented, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "not supported")

	// the stored key is untouched
	rec = doRequest(s, token, "GET", "/keys/p1/wallet-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "my-key-material", rec.Body.String())
}

func TestRequestIDEchoed(t *testing.T) {
	s, token := newTestServer(t)

	rec := doRequest(s, token, "GET", "/keys/p1/wallet-a", "")
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}
