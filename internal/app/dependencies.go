package app

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/notebook/internal/auth"
	"github.com/klokku/notebook/internal/config"
	"github.com/klokku/notebook/internal/event_bus"
	"github.com/klokku/notebook/internal/utils"
	"github.com/klokku/notebook/pkg/calendar"
	"github.com/klokku/notebook/pkg/google"
	"github.com/klokku/notebook/pkg/note"
	"github.com/klokku/notebook/pkg/project"
	"github.com/klokku/notebook/pkg/storage"
	"github.com/klokku/notebook/pkg/transcription"
	"github.com/klokku/notebook/pkg/user"
	"github.com/klokku/notebook/pkg/viewer"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	db    *pgxpool.Pool
	cache *redis.Client

	Clock    utils.Clock
	EventBus *event_bus.EventBus
	Tokens   *auth.Tokens

	UserService user.Service
	UserHandler *user.Handler

	GoogleAuth *google.GoogleAuth

	ProjectService project.Service
	ProjectHandler *project.Handler

	Storage        storage.BlobStorage
	StorageHandler *storage.Handler

	NoteService note.Service
	NoteHandler *note.Handler

	CalendarService *calendar.Service
	CalendarHandler *calendar.Handler

	ViewerService *viewer.Service
	ViewerHandler *viewer.Handler

	TranscriptionService *transcription.Service
	TranscriptionHandler *transcription.Handler
}

// BuildDependencies initializes and wires all application services and handlers. cache may be
// nil, note lists are then not cached.
func BuildDependencies(db *pgxpool.Pool, cache *redis.Client, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{db: db, cache: cache}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	tokens, err := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTtl, deps.Clock)
	if err != nil {
		return nil, err
	}
	deps.Tokens = tokens

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.GoogleAuth = google.NewGoogleAuth(
		google.NewStateRepository(db),
		deps.UserService,
		deps.Tokens,
		google.NewOAuthConfig(cfg),
		google.FetchUserinfo,
		deps.Clock,
		cfg.Host,
	)

	deps.ProjectService = project.NewService(project.NewRepository(db))
	deps.ProjectHandler = project.NewHandler(deps.ProjectService)

	blobs, err := storage.New(cfg.Storage, cfg.Host)
	if err != nil {
		return nil, err
	}
	deps.Storage = blobs
	deps.StorageHandler = storage.NewHandler(blobs)
	storage.SubscribeCleanup(deps.EventBus, blobs)

	var listCache note.ListCache = note.NoopListCache{}
	if cache != nil {
		listCache = note.NewRedisListCache(cache, cfg.Cache.Ttl)
	}
	note.SubscribeInvalidation(deps.EventBus, listCache)
	deps.NoteService = note.NewService(note.NewRepository(db), listCache, blobs, deps.EventBus, deps.Clock)
	deps.NoteHandler = note.NewHandler(deps.NoteService)

	deps.CalendarService = calendar.NewService(deps.NoteService, deps.Clock)
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarService)

	deps.ViewerService = viewer.NewService(deps.NoteService)
	deps.ViewerHandler = viewer.NewHandler(deps.ViewerService)

	var sender transcription.Sender
	if cfg.Transcription.Url != "" {
		sender = transcription.NewClient(&http.Client{Timeout: cfg.Transcription.Timeout}, cfg.Transcription.Url)
	} else {
		log.Info("No transcription url configured, new transcriptions cannot be requested")
	}
	deps.TranscriptionService = transcription.NewService(deps.NoteService, sender)
	deps.TranscriptionHandler = transcription.NewHandler(deps.TranscriptionService)

	return deps, nil
}

// Close releases the database pool and the cache connection.
func (d *Dependencies) Close() {
	if d.cache != nil {
		if err := d.cache.Close(); err != nil {
			log.Errorf("failed to close cache connection: %v", err)
		}
	}
	d.db.Close()
}
