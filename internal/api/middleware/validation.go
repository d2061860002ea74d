// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/validation"
)

// ValidateUsernameMiddleware validates the username URL parameter.
// Returns 400 Bad Request if the username is missing or malformed.
//
// Example usage in router:
//
//	r.Route("/{username}", func(r chi.Router) {
//	    r.Use(middleware.ValidateUsernameMiddleware)
//	    r.Get("/", handler.GetAccount)
//	})
func ValidateUsernameMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")

		if err := validation.ValidateUsername(username); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid username", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ValidateUUIDMiddleware validates that the uuid URL parameter is present and is a valid UUID.
// Returns 400 Bad Request if the ID is missing or invalid.
func ValidateUUIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		UUID := chi.URLParam(r, "uuid")

		if UUID == "" {
			response.RespondError(w, http.StatusBadRequest, "valid UUID is required", "")
			return
		}

		if err := validation.ValidateUUID(UUID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid UUID format", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
