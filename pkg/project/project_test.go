package project

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klokku/notebook/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = user.WithUser(context.Background(), user.User{Id: 1, Uid: "u1"})

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Hobby", "hobby"},
		{"  Work Notes  ", "work-notes"},
		{"Trip: Kraków 2022!", "trip-kraków-2022"},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.name), tt.name)
	}
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should create and list projects", func(t *testing.T) {
		// given
		service := NewService(NewRepositoryStub())

		// when
		_, err := service.Create(ctx, "Work")
		require.NoError(t, err)
		_, err = service.Create(ctx, "Hobby")
		require.NoError(t, err)

		// then
		projects, err := service.List(ctx)
		require.NoError(t, err)
		require.Len(t, projects, 2)
		assert.Equal(t, "Hobby", projects[0].Name)
		assert.Equal(t, "work", projects[1].Slug)
	})

	t.Run("should reject duplicates", func(t *testing.T) {
		service := NewService(NewRepositoryStub())
		_, err := service.Create(ctx, "Work")
		require.NoError(t, err)

		_, err = service.Create(ctx, "work")

		assert.ErrorIs(t, err, ErrProjectExists)
	})

	t.Run("should reject names without letters", func(t *testing.T) {
		service := NewService(NewRepositoryStub())

		_, err := service.Create(ctx, "!!!")

		assert.ErrorIs(t, err, ErrInvalidProject)
	})

	t.Run("should require a user", func(t *testing.T) {
		service := NewService(NewRepositoryStub())

		_, err := service.Create(context.Background(), "Work")

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestHandler(t *testing.T) {
	handler := NewHandler(NewService(NewRepositoryStub()))

	req := httptest.NewRequest(http.MethodPost, "/api/project", strings.NewReader(`{"name":"Work"}`)).WithContext(ctx)
	rr := httptest.NewRecorder()
	handler.Create(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/project", strings.NewReader(`{"name":"Work"}`)).WithContext(ctx)
	rr = httptest.NewRecorder()
	handler.Create(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/project", nil).WithContext(ctx)
	rr = httptest.NewRecorder()
	handler.List(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	var projects []ProjectDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "work", projects[0].Slug)
}
