package viewer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_GetPage(t *testing.T) {
	t.Run("should open on the last page", func(t *testing.T) {
		// given
		handler := NewHandler(NewService(stubNotes{pages: viewerPages()}))
		req := httptest.NewRequest(http.MethodGet, "/api/viewer", nil).WithContext(viewerCtx())
		rr := httptest.NewRecorder()

		// when
		handler.GetPage(rr, req)

		// then
		require.Equal(t, http.StatusOK, rr.Code)
		var view ViewDTO
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&view))
		assert.Equal(t, 3, view.Page)
		assert.Equal(t, 3, view.TotalPages)
		require.Len(t, view.Notes, 1)
		assert.Equal(t, "april", view.Notes[0].Id)
		assert.Equal(t, "2022-04-01", view.Notes[0].Projects[0].Date)
	})

	t.Run("should return 404 for a page out of range", func(t *testing.T) {
		handler := NewHandler(NewService(stubNotes{pages: viewerPages()}))
		req := httptest.NewRequest(http.MethodGet, "/api/viewer?page=9", nil).WithContext(viewerCtx())
		rr := httptest.NewRecorder()

		handler.GetPage(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("should return 400 for a malformed page", func(t *testing.T) {
		handler := NewHandler(NewService(stubNotes{pages: viewerPages()}))
		req := httptest.NewRequest(http.MethodGet, "/api/viewer?page=two", nil).WithContext(viewerCtx())
		rr := httptest.NewRecorder()

		handler.GetPage(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandler_Locate(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		want       LocateDTO
	}{
		{"found", "date=2022-02-01&current=3", http.StatusOK, LocateDTO{Page: 2, Found: true}},
		{"not found keeps the cursor", "date=1999-01-01&current=3", http.StatusOK, LocateDTO{Page: 3, Found: false}},
		// 2022-02-02T02:00Z is still Feb 1 in New York
		{"timestamp in the user's timezone", "date=2022-02-02T02:00:00Z&current=1", http.StatusOK, LocateDTO{Page: 2, Found: true}},
		{"malformed date", "date=yesterday", http.StatusBadRequest, LocateDTO{}},
		{"malformed cursor", "date=2022-02-01&current=x", http.StatusBadRequest, LocateDTO{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(NewService(stubNotes{pages: viewerPages()}))
			req := httptest.NewRequest(http.MethodGet, "/api/viewer/locate?"+tt.query, nil).WithContext(viewerCtx())
			rr := httptest.NewRecorder()

			handler.Locate(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var body LocateDTO
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
				assert.Equal(t, tt.want, body)
			}
		})
	}
}

func TestHandler_Locate_WithoutUser(t *testing.T) {
	handler := NewHandler(NewService(stubNotes{pages: viewerPages()}))
	req := httptest.NewRequest(http.MethodGet, "/api/viewer/locate?date=2022-02-01", nil)
	rr := httptest.NewRecorder()

	handler.Locate(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
