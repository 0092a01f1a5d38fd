// Package middleware holds HTTP middleware shared by the API routes.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/user"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/auth"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/pkg/utils"
)

// Authenticator resolves a raw bearer token into a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.User, error)
}

// Auth rejects requests without a valid bearer token and stores the user on
// the request context.
type Auth struct {
	authn Authenticator
	log   *logger.Logger
}

func NewAuth(authn Authenticator, log *logger.Logger) *Auth {
	return &Auth{authn: authn, log: logger.OrNop(log).With("middleware", "auth")}
}

// RequireAuth accepts "Authorization: Bearer <token>" or a ?token= query
// parameter, which browsers need for websockets.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			utils.RespondError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		u, err := a.authn.Authenticate(r.Context(), token)
		if err != nil {
			a.log.Debug("token rejected", "error", err)
			w.Header().Set("WWW-Authenticate", "Bearer")
			utils.RespondError(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
	})
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
