package note

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/klokku/notebook/internal/event_bus"
	"github.com/klokku/notebook/internal/utils"
	"github.com/klokku/notebook/pkg/storage"
	"github.com/klokku/notebook/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	ListNotes(ctx context.Context) ([]NotePage, error)
	GetNote(ctx context.Context, id string) (NotePage, error)
	CreateNote(ctx context.Context, page NotePage) (NotePage, error)
	PutNote(ctx context.Context, page NotePage) (NotePage, error)
	PatchNote(ctx context.Context, id string, patch NotePatch) (NotePage, error)
	DeleteNote(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]Category, error)
	// Untranscribed lists pages still missing a transcription, oldest first.
	Untranscribed(ctx context.Context) ([]NotePage, error)
	UploadImage(ctx context.Context, id string, photo Upload, thumbnail *Upload) (NotePage, error)
}

// Upload is a photo received from the client.
type Upload struct {
	Data []byte
}

type ServiceImpl struct {
	repo     Repository
	cache    ListCache
	storage  storage.BlobStorage
	eventBus *event_bus.EventBus
	clock    utils.Clock
}

func NewService(repo Repository, cache ListCache, blobs storage.BlobStorage, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	if cache == nil {
		cache = NoopListCache{}
	}
	return &ServiceImpl{repo: repo, cache: cache, storage: blobs, eventBus: eventBus, clock: clock}
}

func (s *ServiceImpl) ListNotes(ctx context.Context) ([]NotePage, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if pages, ok := s.cache.Get(ctx, userId); ok {
		log.Tracef("note list cache hit for user %d", userId)
		return pages, nil
	}
	pages, err := s.repo.List(ctx, userId)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, userId, pages)
	return pages, nil
}

func (s *ServiceImpl) GetNote(ctx context.Context, id string) (NotePage, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return NotePage{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, userId, id)
}

func (s *ServiceImpl) CreateNote(ctx context.Context, page NotePage) (NotePage, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return NotePage{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if err := Validate(page); err != nil {
		return NotePage{}, err
	}
	page.Id = uuid.NewString()
	page.CreatedAt = s.clock.Now().UTC()
	if err := s.repo.Store(ctx, userId, page); err != nil {
		return NotePage{}, err
	}
	s.publishChanged(ctx, userId, page.Id)
	return s.repo.Get(ctx, userId, page.Id)
}

// PutNote replaces an existing page. The creation time is kept.
func (s *ServiceImpl) PutNote(ctx context.Context, page NotePage) (NotePage, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return NotePage{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if err := Validate(page); err != nil {
		return NotePage{}, err
	}
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		existing, err := repo.Get(ctx, userId, page.Id)
		if err != nil {
			return err
		}
		page.CreatedAt = existing.CreatedAt
		return repo.Store(ctx, userId, page)
	})
	if err != nil {
		return NotePage{}, err
	}
	s.publishChanged(ctx, userId, page.Id)
	return s.repo.Get(ctx, userId, page.Id)
}

func (s *ServiceImpl) PatchNote(ctx context.Context, id string, patch NotePatch) (NotePage, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return NotePage{}, fmt.Errorf("failed to get current user: %w", err)
	}
	var patched NotePage
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		existing, err := repo.Get(ctx, userId, id)
		if err != nil {
			return err
		}
		patched = existing.Apply(patch)
		if err := Validate(patched); err != nil {
			return err
		}
		return repo.Store(ctx, userId, patched)
	})
	if err != nil {
		return NotePage{}, err
	}
	s.publishChanged(ctx, userId, id)
	return s.repo.Get(ctx, userId, id)
}

func (s *ServiceImpl) DeleteNote(ctx context.Context, id string) error {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	page, err := s.repo.Get(ctx, currentUser.Id, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, currentUser.Id, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotePageNotFound
	}

	// The page row is gone at this point. A failing subscriber only leaves orphaned photos or a
	// stale cache entry that expires with its TTL.
	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.NotePageDeletedType, event_bus.NotePageDeleted{
		Id:           page.Id,
		UserId:       currentUser.Id,
		UserUid:      currentUser.Uid,
		Url:          page.Url,
		ThumbnailUrl: page.ThumbnailUrl,
	}))
	if err != nil {
		log.Errorf("failed to publish deletion of note page %s: %v", id, err)
	}
	return nil
}

func (s *ServiceImpl) Categories(ctx context.Context) ([]Category, error) {
	pages, err := s.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	return CategoriesOf(pages), nil
}

func (s *ServiceImpl) Untranscribed(ctx context.Context) ([]NotePage, error) {
	pages, err := s.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]NotePage, 0)
	for _, page := range SortChronologically(pages) {
		if !page.IsTranscribed() {
			pending = append(pending, page)
		}
	}
	return pending, nil
}

// UploadImage stores the photo, and the thumbnail when given, and records their urls, size and
// dimensions on the page.
func (s *ServiceImpl) UploadImage(ctx context.Context, id string, photo Upload, thumbnail *Upload) (NotePage, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return NotePage{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.repo.Get(ctx, currentUser.Id, id); err != nil {
		return NotePage{}, err
	}

	config, contentType, err := inspectImage(photo.Data)
	if err != nil {
		return NotePage{}, fmt.Errorf("%w: photo: %v", ErrInvalidNotePage, err)
	}
	var thumbnailType string
	if thumbnail != nil {
		if _, thumbnailType, err = inspectImage(thumbnail.Data); err != nil {
			return NotePage{}, fmt.Errorf("%w: thumbnail: %v", ErrInvalidNotePage, err)
		}
	}

	url, err := s.storage.Upload(ctx, storage.PathForNote(currentUser.Uid, id, false), photo.Data, contentType)
	if err != nil {
		return NotePage{}, err
	}
	size := int64(len(photo.Data))
	patch := NotePatch{
		Width:  &config.Width,
		Height: &config.Height,
		Size:   &size,
		Type:   &contentType,
		Url:    &url,
	}
	if thumbnail != nil {
		thumbnailUrl, err := s.storage.Upload(ctx, storage.PathForNote(currentUser.Uid, id, true), thumbnail.Data, thumbnailType)
		if err != nil {
			return NotePage{}, err
		}
		patch.ThumbnailUrl = &thumbnailUrl
	}
	return s.PatchNote(ctx, id, patch)
}

// imageTypes maps the formats image.DecodeConfig recognizes to the content types photos are
// stored with.
var imageTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// inspectImage reads the header of data. The content type comes from the decoded format, never
// from what the client declared.
func inspectImage(data []byte) (image.Config, string, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("not a supported image: %w", err)
	}
	contentType, ok := imageTypes[format]
	if !ok {
		return image.Config{}, "", fmt.Errorf("unsupported image format %q", format)
	}
	return config, contentType, nil
}

func (s *ServiceImpl) publishChanged(ctx context.Context, userId int, id string) {
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.NotePageChangedType, event_bus.NotePageChanged{
		Id:     id,
		UserId: userId,
	}))
	if err != nil {
		log.Errorf("failed to publish change of note page %s: %v", id, err)
	}
}
