package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klokku/notebook/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[string]user.User

func (s stubUsers) GetUserByUid(ctx context.Context, uid string) (user.User, error) {
	if uid == "google:broken" {
		return user.User{}, errors.New("db down")
	}
	u, ok := s[uid]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func TestMiddleware(t *testing.T) {
	tokens, _ := setupTokens(t)
	users := stubUsers{"google:42": {Id: 7, Uid: "google:42"}}
	issue := func(uid string) string {
		token, _, err := tokens.Issue(uid)
		require.NoError(t, err)
		return token
	}

	var seenUser *user.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = nil
		if u, err := user.CurrentUser(r.Context()); err == nil {
			seenUser = &u
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(tokens, users)(next)

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantUserId int
	}{
		{"bearer header", "Bearer " + issue("google:42"), "", http.StatusOK, 7},
		{"auth query parameter", "", "?auth=" + issue("google:42"), http.StatusOK, 7},
		{"no token", "", "", http.StatusOK, 0},
		{"invalid token", "Bearer nope", "", http.StatusUnauthorized, 0},
		{"unknown user", "Bearer " + issue("google:1"), "", http.StatusForbidden, 0},
		{"lookup failure", "Bearer " + issue("google:broken"), "", http.StatusInternalServerError, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUser = nil
			req := httptest.NewRequest(http.MethodGet, "/api/note"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantUserId == 0 {
				assert.Nil(t, seenUser)
			} else {
				require.NotNil(t, seenUser)
				assert.Equal(t, tt.wantUserId, seenUser.Id)
			}
		})
	}
}
