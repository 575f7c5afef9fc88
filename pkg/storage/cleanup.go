package storage

import (
	"errors"
	"fmt"

	"github.com/klokku/notebook/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// SubscribeCleanup removes the photos of deleted note pages.
func SubscribeCleanup(bus *event_bus.EventBus, storage BlobStorage) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.NotePageDeletedType,
		func(e event_bus.EventT[event_bus.NotePageDeleted]) error {
			var errs []error
			for _, url := range []string{e.Data.Url, e.Data.ThumbnailUrl} {
				if url == "" {
					continue
				}
				path, ok := storage.PathOf(url)
				if !ok {
					log.Debugf("not removing %s, it is not stored here", url)
					continue
				}
				if err := storage.Delete(e.Context(), path); err != nil {
					errs = append(errs, fmt.Errorf("failed to remove photo of note page %s: %w", e.Data.Id, err))
				}
			}
			return errors.Join(errs...)
		})
}
