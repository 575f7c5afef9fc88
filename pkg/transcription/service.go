package transcription

import (
	"context"
	"errors"
	"fmt"

	"github.com/klokku/notebook/pkg/note"
	log "github.com/sirupsen/logrus"
)

var ErrTranscriptionDisabled = errors.New("transcription is not configured")

// Notes is the part of the note service transcriptions are read from and written to.
type Notes interface {
	GetNote(ctx context.Context, id string) (note.NotePage, error)
	PatchNote(ctx context.Context, id string, patch note.NotePatch) (note.NotePage, error)
}

type Sender interface {
	Send(ctx context.Context, page note.NotePageDTO) (*note.Transcription, error)
}

// Result of a transcription request. Pending is set when the transcriber will deliver the
// transcription later through Receive.
type Result struct {
	Transcription *note.Transcription
	Pending       bool
}

type Service struct {
	notes  Notes
	sender Sender
}

// NewService builds the service. A nil sender disables new transcription requests; stored
// transcriptions are still served and callbacks still accepted.
func NewService(notes Notes, sender Sender) *Service {
	return &Service{notes: notes, sender: sender}
}

// Request returns the stored transcription of the page, or asks the transcriber for one when
// there is none or force is set.
func (s *Service) Request(ctx context.Context, id string, force bool) (Result, error) {
	page, err := s.notes.GetNote(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if page.Transcription != nil && !force {
		return Result{Transcription: page.Transcription}, nil
	}
	if s.sender == nil {
		return Result{}, ErrTranscriptionDisabled
	}

	log.Infof("Requesting transcription of note page %s", id)
	transcription, err := s.sender.Send(ctx, note.PageToDTO(page))
	if err != nil {
		return Result{}, fmt.Errorf("failed to request transcription: %w", err)
	}
	if transcription == nil {
		return Result{Pending: true}, nil
	}
	if _, err := s.Receive(ctx, id, *transcription); err != nil {
		return Result{}, err
	}
	return Result{Transcription: transcription}, nil
}

// Receive stores a transcription delivered for the page.
func (s *Service) Receive(ctx context.Context, id string, transcription note.Transcription) (note.NotePage, error) {
	log.Debugf("Storing transcription of note page %s", id)
	return s.notes.PatchNote(ctx, id, note.NotePatch{Transcription: &transcription})
}
