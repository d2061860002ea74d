package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/api/response"
)

// TimeTokenTTL is how long a time token generated by GenerateTimeToken is accepted.
const TimeTokenTTL = 5 * time.Minute

const timeTokenPayload = "trading-ledger"

// APIKeyMiddleware returns a middleware that guards write endpoints.
// Requests must carry the shared key in X-API-Key and a fresh token from
// GenerateTimeToken in X-Time-Token; anything else is rejected with 401.
// An empty apiKey rejects every request with 500.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				response.RespondError(w, http.StatusInternalServerError, "server misconfigured", "Internal API key not configured")
				return
			}

			provided := r.Header.Get("X-API-Key")
			if provided == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
				return
			}

			token := r.Header.Get("X-Time-Token")
			if token == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing Time token")
				return
			}
			if !validTimeToken(apiKey, token) {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Time token is invalid or expired")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GenerateTimeToken returns a token derived from apiKey that
// APIKeyMiddleware accepts for TimeTokenTTL.
func GenerateTimeToken(apiKey string) string {
	key := timeTokenKey(apiKey)
	token, err := fernet.EncryptAndSign([]byte(timeTokenPayload), &key)
	if err != nil {
		return ""
	}
	return string(token)
}

func validTimeToken(apiKey, token string) bool {
	key := timeTokenKey(apiKey)
	msg := fernet.VerifyAndDecrypt([]byte(token), TimeTokenTTL, []*fernet.Key{&key})
	return string(msg) == timeTokenPayload
}

func timeTokenKey(apiKey string) fernet.Key {
	return fernet.Key(sha256.Sum256([]byte(apiKey)))
}
