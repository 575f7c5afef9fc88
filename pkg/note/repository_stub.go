package note

import (
	"context"
	"sort"
	"sync"
	"time"
)

type storedPage struct {
	userId int
	page   NotePage
	seq    int
}

type RepositoryStub struct {
	mu    sync.RWMutex
	pages map[string]storedPage
	seq   int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{pages: make(map[string]storedPage)}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	snapshot := make(map[string]storedPage, len(r.pages))
	for k, v := range r.pages {
		snapshot[k] = v
	}
	seq := r.seq
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.pages = snapshot
		r.seq = seq
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) List(ctx context.Context, userId int) ([]NotePage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := make([]storedPage, 0, len(r.pages))
	for _, s := range r.pages {
		if s.userId == userId {
			stored = append(stored, s)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })
	pages := make([]NotePage, 0, len(stored))
	for _, s := range stored {
		pages = append(pages, clonePage(s.page))
	}
	return pages, nil
}

func (r *RepositoryStub) Get(ctx context.Context, userId int, id string) (NotePage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.pages[id]
	if !ok || s.userId != userId {
		return NotePage{}, ErrNotePageNotFound
	}
	return clonePage(s.page), nil
}

func (r *RepositoryStub) Store(ctx context.Context, userId int, page NotePage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	page = clonePage(page)
	existing, ok := r.pages[page.Id]
	if ok && existing.userId != userId {
		return ErrNotePageNotFound
	}
	seq := existing.seq
	if !ok {
		r.seq++
		seq = r.seq
		if page.CreatedAt.IsZero() {
			page.CreatedAt = time.Now().UTC()
		}
	} else {
		page.CreatedAt = existing.page.CreatedAt
	}
	for i := range page.Projects {
		page.Projects[i].Date = CivilDate(page.Projects[i].Date)
	}
	r.pages[page.Id] = storedPage{userId: userId, page: page, seq: seq}
	return nil
}

func (r *RepositoryStub) Delete(ctx context.Context, userId int, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.pages[id]
	if !ok || s.userId != userId {
		return false, nil
	}
	delete(r.pages, id)
	return true, nil
}

func clonePage(page NotePage) NotePage {
	page.Projects = append([]ProjectTag{}, page.Projects...)
	if page.Transcription != nil {
		t := *page.Transcription
		t.DotPoints = append([]string(nil), t.DotPoints...)
		t.Images = append([]string(nil), t.Images...)
		page.Transcription = &t
	}
	return page
}
