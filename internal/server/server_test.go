package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerWithDeps_RequiresDeps(t *testing.T) {
	_, err := NewServerWithDeps(nil, testutil.NewSQLiteDB(t), nil)
	assert.Error(t, err)

	_, err = NewServerWithDeps(&config.Config{}, nil, nil)
	assert.Error(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", body["status"])

	resp, body = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "disabled", checks["redis"])

	raw, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/", nil), -1)
	require.NoError(t, err)
	defer func() { _ = raw.Body.Close() }()
	text, err := io.ReadAll(raw.Body)
	require.NoError(t, err)
	assert.Equal(t, "Inkwell API is running", string(text))
}

func TestReadiness_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{JWTSecret: testSecret, UploadDir: t.TempDir()}
	srv, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), client)
	require.NoError(t, err)
	env := &testEnv{srv: srv, app: srv.App()}

	_, body := env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, "healthy", body["checks"].(map[string]any)["redis"])

	mr.Close()
	resp, body := env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", body["checks"].(map[string]any)["redis"])
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, body["code"])
}

func TestShutdown(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.srv.Shutdown(context.Background()))

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}
