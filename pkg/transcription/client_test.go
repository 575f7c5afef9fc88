package transcription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klokku/notebook/pkg/note"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	t.Run("should post the page and read an immediate transcription", func(t *testing.T) {
		// given
		var received note.NotePageDTO
		var query string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			_, _ = w.Write([]byte(`{"tagline":"Seeds","rawText":"seeds and soil","dotPoints":["tomatoes","basil"]}`))
		}))
		defer server.Close()
		client := NewClient(server.Client(), server.URL+"/message")

		// when
		transcription, err := client.Send(context.Background(), note.NotePageDTO{Id: "page-1"})

		// then
		require.NoError(t, err)
		assert.Equal(t, "id=transcribeImage", query)
		assert.Equal(t, "page-1", received.Id)
		require.NotNil(t, transcription)
		assert.Equal(t, note.Transcription{
			RawText:   "seeds and soil",
			Tagline:   "Seeds",
			DotPoints: []string{"tomatoes", "basil"},
		}, *transcription)
	})

	t.Run("should treat an acknowledgement as pending", func(t *testing.T) {
		for _, reply := range []string{`{"status":"queued"}`, `ok`, ``} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(reply))
			}))
			client := NewClient(server.Client(), server.URL)

			transcription, err := client.Send(context.Background(), note.NotePageDTO{Id: "page-1"})

			require.NoError(t, err)
			assert.Nil(t, transcription, reply)
			server.Close()
		}
	})

	t.Run("should fail on an error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "brain offline", http.StatusBadGateway)
		}))
		defer server.Close()
		client := NewClient(server.Client(), server.URL)

		_, err := client.Send(context.Background(), note.NotePageDTO{Id: "page-1"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
		assert.Contains(t, err.Error(), "brain offline")
	})
}
