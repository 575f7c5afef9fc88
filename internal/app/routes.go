package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Sign-in
	r.HandleFunc("/api/auth/google/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/auth/google/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")

	// Projects
	r.HandleFunc("/api/project", deps.ProjectHandler.List).Methods("GET")
	r.HandleFunc("/api/project", deps.ProjectHandler.Create).Methods("POST")

	// Note pages
	r.HandleFunc("/api/note", deps.NoteHandler.List).Methods("GET")
	r.HandleFunc("/api/note", deps.NoteHandler.Create).Methods("POST")
	r.HandleFunc("/api/note/categories", deps.NoteHandler.Categories).Methods("GET")
	r.HandleFunc("/api/note/untranscribed", deps.NoteHandler.Untranscribed).Methods("GET")
	r.HandleFunc("/api/note/{id}", deps.NoteHandler.Get).Methods("GET")
	r.HandleFunc("/api/note/{id}", deps.NoteHandler.Put).Methods("PUT")
	r.HandleFunc("/api/note/{id}", deps.NoteHandler.Patch).Methods("PATCH")
	r.HandleFunc("/api/note/{id}", deps.NoteHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/note/{id}/image", deps.NoteHandler.UploadImage).Methods("PUT")

	// Transcription
	r.HandleFunc("/api/note/{id}/transcribe", deps.TranscriptionHandler.Request).Methods("GET")
	r.HandleFunc("/api/note/{id}/transcription", deps.TranscriptionHandler.Receive).Methods("POST")

	// Calendar heat-map
	r.HandleFunc("/api/calendar", deps.CalendarHandler.GetGrid).Methods("GET")
	r.HandleFunc("/api/calendar/export", deps.CalendarHandler.Export).Methods("GET")
	r.HandleFunc("/api/calendar/click", deps.CalendarHandler.Click).Methods("GET")

	// Viewer
	r.HandleFunc("/api/viewer", deps.ViewerHandler.GetPage).Methods("GET")
	r.HandleFunc("/api/viewer/locate", deps.ViewerHandler.Locate).Methods("GET")

	// Photos of the memory storage driver
	r.HandleFunc("/api/storage/{path:.*}", deps.StorageHandler.Get).Methods("GET")
}
