package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("no"), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("not yours"), http.StatusForbidden},
		{"not found", NewNotFoundError("Post", 1), http.StatusNotFound},
		{"conflict", NewConflictError("taken"), http.StatusConflict},
		{"internal", NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped app error", fmt.Errorf("load: %w", NewNotFoundError("Post", 2)), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestAuthErrorKeepsReason(t *testing.T) {
	t.Parallel()

	reason := errors.New("token expired")
	err := NewAuthError("Token has expired", reason)

	assert.ErrorIs(t, err, reason)
	assert.True(t, IsCode(err, CodeUnauthorized))
	assert.Equal(t, "Token has expired: token expired", err.Error())
}

func TestRespondWithError_HidesInternalCause(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, http.StatusInternalServerError, NewInternalError(errors.New("pq: password authentication failed")))
	})
	app.Get("/auth", func(c *fiber.Ctx) error {
		return RespondWithError(c, http.StatusUnauthorized, NewAuthError("Token has expired", errors.New("token expired")))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/internal", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	var internal ErrorResponse
	require.NoError(t, json.Unmarshal(body, &internal))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, CodeInternal, internal.Code)
	assert.Empty(t, internal.Details)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/auth", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	var auth ErrorResponse
	require.NoError(t, json.Unmarshal(body, &auth))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token has expired", auth.Error)
	assert.Equal(t, "token expired", auth.Details)
}
