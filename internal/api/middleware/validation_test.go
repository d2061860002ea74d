package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/api/middleware"
)

func requestWithParam(key, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestValidateUsernameMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		wantStatus int
		wantCalled bool
	}{
		{name: "passes through valid username", username: "alice", wantStatus: http.StatusOK, wantCalled: true},
		{name: "returns 400 for missing username", username: "", wantStatus: http.StatusBadRequest},
		{name: "returns 400 for malformed username", username: "al ice", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			w := httptest.NewRecorder()
			middleware.ValidateUsernameMiddleware(next).ServeHTTP(w, requestWithParam("username", tt.username))

			assert.Equal(t, tt.wantCalled, handlerCalled)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestValidateUUIDMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantCalled bool
	}{
		{name: "passes through valid UUID", id: "550e8400-e29b-41d4-a716-446655440000", wantStatus: http.StatusOK, wantCalled: true},
		{name: "returns 400 for invalid UUID", id: "invalid-id", wantStatus: http.StatusBadRequest},
		{name: "returns 400 for missing UUID", id: "", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			w := httptest.NewRecorder()
			middleware.ValidateUUIDMiddleware(next).ServeHTTP(w, requestWithParam("uuid", tt.id))

			assert.Equal(t, tt.wantCalled, handlerCalled)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
