package note

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/klokku/notebook/internal/event_bus"
	"github.com/klokku/notebook/internal/utils"
	"github.com/klokku/notebook/pkg/storage"
	"github.com/klokku/notebook/pkg/user"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2022, 2, 10, 9, 0, 0, 0, time.UTC)

var currentUser = user.User{Id: 1, Uid: "google:1", Settings: user.Settings{Timezone: "Europe/Warsaw"}}

type serviceFixture struct {
	service *ServiceImpl
	repo    *RepositoryStub
	blobs   *storage.MemoryStorage
	bus     *event_bus.EventBus
	redis   *miniredis.Miniredis
	clock   *utils.MockClock
	ctx     context.Context
}

func setupService(t *testing.T) serviceFixture {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	cache := NewRedisListCache(client, time.Minute)
	repo := NewRepositoryStub()
	blobs := storage.NewMemoryStorage("http://localhost:3000/api/storage")
	bus := event_bus.NewEventBus()
	clock := utils.NewMockClock(now)
	SubscribeInvalidation(bus, cache)
	storage.SubscribeCleanup(bus, blobs)

	return serviceFixture{
		service: NewService(repo, cache, blobs, bus, clock),
		repo:    repo,
		blobs:   blobs,
		bus:     bus,
		redis:   server,
		clock:   clock,
		ctx:     user.WithUser(context.Background(), currentUser),
	}
}

func pngBytes(t *testing.T, width, height int) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, width, height int) []byte {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), nil))
	return buf.Bytes()
}

func storedContentType(t *testing.T, f serviceFixture, path string) string {
	body, contentType, err := f.blobs.Download(f.ctx, path)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	return contentType
}

func TestServiceImpl_CreateNote(t *testing.T) {
	t.Run("should assign id and creation time", func(t *testing.T) {
		// given
		f := setupService(t)

		// when
		created, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 2, 1))))

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, created.Id)
		assert.Equal(t, now, created.CreatedAt)
		assert.Equal(t, []time.Time{day(2022, 2, 1)}, created.Dates())
	})

	t.Run("should reject a page without projects", func(t *testing.T) {
		f := setupService(t)

		_, err := f.service.CreateNote(f.ctx, page(""))

		assert.ErrorIs(t, err, ErrInvalidNotePage)
	})

	t.Run("should require a user", func(t *testing.T) {
		f := setupService(t)

		_, err := f.service.CreateNote(context.Background(), page("", tag("garden", day(2022, 2, 1))))

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestServiceImpl_ListNotes(t *testing.T) {
	t.Run("should cache the list until a page changes", func(t *testing.T) {
		// given
		f := setupService(t)
		_, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 2, 1))))
		require.NoError(t, err)

		// when
		first, err := f.service.ListNotes(f.ctx)
		require.NoError(t, err)

		// then
		assert.Len(t, first, 1)
		assert.True(t, f.redis.Exists(cacheKey(currentUser.Id)))

		cached, err := f.service.ListNotes(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, first, cached)

		_, err = f.service.CreateNote(f.ctx, page("", tag("kitchen", day(2022, 2, 2))))
		require.NoError(t, err)
		assert.False(t, f.redis.Exists(cacheKey(currentUser.Id)))

		refreshed, err := f.service.ListNotes(f.ctx)
		require.NoError(t, err)
		assert.Len(t, refreshed, 2)
	})

	t.Run("should only list pages of the current user", func(t *testing.T) {
		// given
		f := setupService(t)
		other := user.WithUser(context.Background(), user.User{Id: 2, Uid: "google:2"})
		_, err := f.service.CreateNote(other, page("", tag("garden", day(2022, 2, 1))))
		require.NoError(t, err)

		// when
		pages, err := f.service.ListNotes(f.ctx)

		// then
		require.NoError(t, err)
		assert.Empty(t, pages)
	})
}

func TestServiceImpl_PutNote(t *testing.T) {
	t.Run("should replace the page and keep its creation time", func(t *testing.T) {
		// given
		f := setupService(t)
		created, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 2, 1))))
		require.NoError(t, err)
		f.clock.Advance(time.Hour)

		// when
		updated, err := f.service.PutNote(f.ctx, page(created.Id, tag("kitchen", day(2022, 3, 1))))

		// then
		require.NoError(t, err)
		assert.Equal(t, now, updated.CreatedAt)
		assert.Equal(t, "kitchen", updated.Projects[0].Name)
	})

	t.Run("should return not found for an unknown page", func(t *testing.T) {
		f := setupService(t)

		_, err := f.service.PutNote(f.ctx, page("missing", tag("garden", day(2022, 2, 1))))

		assert.ErrorIs(t, err, ErrNotePageNotFound)
	})
}

func TestServiceImpl_PatchNote(t *testing.T) {
	t.Run("should change only the given fields", func(t *testing.T) {
		// given
		f := setupService(t)
		created, err := f.service.CreateNote(f.ctx, NotePage{Width: 10, Projects: []ProjectTag{tag("garden", day(2022, 2, 1))}})
		require.NoError(t, err)

		// when
		patched, err := f.service.PatchNote(f.ctx, created.Id, NotePatch{
			Transcription: &Transcription{Tagline: "Seeds", DotPoints: []string{"tomatoes"}},
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, 10, patched.Width)
		assert.True(t, patched.IsTranscribed())
	})

	t.Run("should keep the stored page when the patch is invalid", func(t *testing.T) {
		// given
		f := setupService(t)
		created, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 2, 1))))
		require.NoError(t, err)
		empty := []ProjectTag{}

		// when
		_, err = f.service.PatchNote(f.ctx, created.Id, NotePatch{Projects: &empty})

		// then
		assert.ErrorIs(t, err, ErrInvalidNotePage)
		stored, err := f.service.GetNote(f.ctx, created.Id)
		require.NoError(t, err)
		assert.Len(t, stored.Projects, 1)
	})
}

func TestServiceImpl_DeleteNote(t *testing.T) {
	t.Run("should remove the page and its photos", func(t *testing.T) {
		// given
		f := setupService(t)
		created, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 2, 1))))
		require.NoError(t, err)
		photo := Upload{Data: pngBytes(t, 4, 3)}
		thumbnail := Upload{Data: pngBytes(t, 2, 1)}
		_, err = f.service.UploadImage(f.ctx, created.Id, photo, &thumbnail)
		require.NoError(t, err)
		photoPath := storage.PathForNote(currentUser.Uid, created.Id, false)
		require.True(t, f.blobs.Has(photoPath))

		// when
		err = f.service.DeleteNote(f.ctx, created.Id)

		// then
		require.NoError(t, err)
		_, err = f.service.GetNote(f.ctx, created.Id)
		assert.ErrorIs(t, err, ErrNotePageNotFound)
		assert.False(t, f.blobs.Has(photoPath))
		assert.False(t, f.blobs.Has(storage.PathForNote(currentUser.Uid, created.Id, true)))
	})

	t.Run("should return not found for an unknown page", func(t *testing.T) {
		f := setupService(t)

		err := f.service.DeleteNote(f.ctx, "missing")

		assert.ErrorIs(t, err, ErrNotePageNotFound)
	})
}

func TestServiceImpl_UploadImage(t *testing.T) {
	t.Run("should store the photo and record its dimensions", func(t *testing.T) {
		// given
		f := setupService(t)
		created, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 2, 1))))
		require.NoError(t, err)
		data := pngBytes(t, 40, 30)

		// when
		updated, err := f.service.UploadImage(f.ctx, created.Id, Upload{Data: data}, nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, 40, updated.Width)
		assert.Equal(t, 30, updated.Height)
		assert.Equal(t, int64(len(data)), updated.Size)
		assert.Equal(t, "image/png", updated.Type)
		assert.Equal(t, "http://localhost:3000/api/storage/notes/google_1/"+created.Id+".jpg", updated.Url)
		assert.Empty(t, updated.ThumbnailUrl)
	})

	t.Run("should reject data that is not an image", func(t *testing.T) {
		f := setupService(t)
		created, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 2, 1))))
		require.NoError(t, err)

		_, err = f.service.UploadImage(f.ctx, created.Id, Upload{Data: []byte("not an image")}, nil)

		assert.ErrorIs(t, err, ErrInvalidNotePage)
	})

	t.Run("should store content types of the decoded images", func(t *testing.T) {
		// given
		f := setupService(t)
		created, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 2, 1))))
		require.NoError(t, err)
		thumbnail := Upload{Data: jpegBytes(t, 4, 3)}

		// when
		updated, err := f.service.UploadImage(f.ctx, created.Id, Upload{Data: pngBytes(t, 8, 6)}, &thumbnail)

		// then
		require.NoError(t, err)
		assert.Equal(t, "image/png", updated.Type)
		assert.Equal(t, "image/png", storedContentType(t, f, storage.PathForNote(currentUser.Uid, created.Id, false)))
		assert.Equal(t, "image/jpeg", storedContentType(t, f, storage.PathForNote(currentUser.Uid, created.Id, true)))
	})

	t.Run("should reject a thumbnail that is not an image", func(t *testing.T) {
		// given
		f := setupService(t)
		created, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 2, 1))))
		require.NoError(t, err)
		thumbnail := Upload{Data: []byte("<script>alert(1)</script>")}

		// when
		_, err = f.service.UploadImage(f.ctx, created.Id, Upload{Data: pngBytes(t, 8, 6)}, &thumbnail)

		// then
		assert.ErrorIs(t, err, ErrInvalidNotePage)
		assert.False(t, f.blobs.Has(storage.PathForNote(currentUser.Uid, created.Id, true)))
		assert.False(t, f.blobs.Has(storage.PathForNote(currentUser.Uid, created.Id, false)))
		stored, err := f.service.GetNote(f.ctx, created.Id)
		require.NoError(t, err)
		assert.Empty(t, stored.Type)
		assert.Empty(t, stored.Url)
	})

	t.Run("should return not found for an unknown page", func(t *testing.T) {
		f := setupService(t)

		_, err := f.service.UploadImage(f.ctx, "missing", Upload{Data: pngBytes(t, 1, 1)}, nil)

		assert.ErrorIs(t, err, ErrNotePageNotFound)
	})
}

func TestServiceImpl_Untranscribed(t *testing.T) {
	// given
	f := setupService(t)
	late, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 3, 1))))
	require.NoError(t, err)
	early, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 2, 1))))
	require.NoError(t, err)
	done, err := f.service.CreateNote(f.ctx, NotePage{
		Projects:      []ProjectTag{tag("garden", day(2022, 1, 1))},
		Transcription: &Transcription{Tagline: "Done"},
	})
	require.NoError(t, err)

	// when
	pending, err := f.service.Untranscribed(f.ctx)

	// then
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, early.Id, pending[0].Id)
	assert.Equal(t, late.Id, pending[1].Id)
	assert.NotEqual(t, done.Id, pending[0].Id)
}

func TestServiceImpl_Categories(t *testing.T) {
	f := setupService(t)
	_, err := f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 3, 1))))
	require.NoError(t, err)
	_, err = f.service.CreateNote(f.ctx, page("", tag("garden", day(2022, 3, 2)), tag("attic", day(2022, 3, 2))))
	require.NoError(t, err)

	categories, err := f.service.Categories(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, []Category{{Name: "garden", Count: 2}, {Name: "attic", Count: 1}}, categories)
}
