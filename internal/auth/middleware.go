package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/klokku/notebook/pkg/user"
	log "github.com/sirupsen/logrus"
)

type UserLookup interface {
	GetUserByUid(ctx context.Context, uid string) (user.User, error)
}

// Middleware resolves the bearer token of a request to its user and stores the user in the
// request context. The token is read from the Authorization header or the "auth" query
// parameter. Requests without a token pass through without a user.
func Middleware(tokens *Tokens, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenOf(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				log.Debugf("rejecting token: %v", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			u, err := users.GetUserByUid(r.Context(), claims.Uid)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					log.Debugf("user not found: %s", claims.Uid)
					http.Error(w, "user not found", http.StatusForbidden)
					return
				}
				log.Errorf("failed to get user: %v", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(user.WithUser(r.Context(), u)))
		})
	}
}

func tokenOf(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("auth"))
}
