package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
}

// newTestEnv builds the full app over a private in-memory database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	cfg := &config.Config{
		Env:             "test",
		Port:            "0",
		JWTSecret:       testSecret,
		JWTIssuer:       "inkwell-api",
		TokenTTLHours:   24,
		DBDriver:        "sqlite",
		UploadDir:       t.TempDir(),
		UploadMaxSizeMB: 1,
		AllowedOrigins:  "http://localhost:5173",
	}
	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	return &testEnv{srv: srv, app: srv.App(), db: db}
}

// do sends a request with an optional JSON body and bearer token and decodes
// a JSON response into a generic map when there is one.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

// register creates an account through the API and returns its token and id.
func (e *testEnv) register(t *testing.T, name string) (string, uint) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name":     name,
		"email":    fmt.Sprintf("%s@example.com", name),
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	user := body["user"].(map[string]any)
	return body["token"].(string), uint(user["id"].(float64))
}

// category creates a category through the API and returns its id.
func (e *testEnv) category(t *testing.T, name string) uint {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/categories", "", fiber.Map{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return uint(body["id"].(float64))
}

// post creates a post through the API and returns the decoded response.
func (e *testEnv) post(t *testing.T, token string, categoryID uint, title, content string) map[string]any {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/posts", token, fiber.Map{
		"title":    title,
		"content":  content,
		"category": categoryID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return body
}

func idOf(m map[string]any) uint {
	return uint(m["id"].(float64))
}
