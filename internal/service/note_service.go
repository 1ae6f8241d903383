package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/notely/internal/domain"
	"github.com/dom/notely/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NoteService owns the note lifecycle. Every call is scoped to the owner id
// of the authenticated caller, and a note owned by someone else behaves
// exactly like a missing one.
type NoteService struct {
	noteRepo  repository.NoteRepository
	eventRepo repository.NoteEventRepository
	log       *zap.Logger
}

func NewNoteService(noteRepo repository.NoteRepository, eventRepo repository.NoteEventRepository, log *zap.Logger) *NoteService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NoteService{
		noteRepo:  noteRepo,
		eventRepo: eventRepo,
		log:       log,
	}
}

type CreateNoteInput struct {
	Title    string
	Synopsis string
	Content  string
}

// UpdateNoteInput overwrites only the fields that are set.
type UpdateNoteInput struct {
	Title    *string
	Synopsis *string
	Content  *string
}

func (s *NoteService) Create(ctx context.Context, ownerID uuid.UUID, input CreateNoteInput) (*domain.Note, error) {
	if err := required(
		field("title", input.Title),
		field("synopsis", input.Synopsis),
		field("content", input.Content),
	); err != nil {
		return nil, err
	}

	now := time.Now()
	note := &domain.Note{
		ID:        uuid.New(),
		UserID:    ownerID,
		Title:     input.Title,
		Synopsis:  input.Synopsis,
		Content:   input.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}

	s.record(ctx, note, domain.EventCreated, nil)
	return note, nil
}

// List returns the owner's active notes, newest first.
func (s *NoteService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Note, error) {
	return s.noteRepo.List(ctx, ownerID, repository.NoteFilter{State: domain.NoteActive})
}

// ListTrash returns the owner's trashed notes, newest first.
func (s *NoteService) ListTrash(ctx context.Context, ownerID uuid.UUID) ([]*domain.Note, error) {
	return s.noteRepo.List(ctx, ownerID, repository.NoteFilter{State: domain.NoteTrashed})
}

// ListFavorites returns the owner's active favorite notes, newest first.
func (s *NoteService) ListFavorites(ctx context.Context, ownerID uuid.UUID) ([]*domain.Note, error) {
	return s.noteRepo.List(ctx, ownerID, repository.NoteFilter{State: domain.NoteActive, FavoritesOnly: true})
}

func (s *NoteService) Get(ctx context.Context, ownerID, noteID uuid.UUID) (*domain.Note, error) {
	return s.noteRepo.Get(ctx, ownerID, noteID, domain.NoteActive)
}

func (s *NoteService) GetTrashed(ctx context.Context, ownerID, noteID uuid.UUID) (*domain.Note, error) {
	return s.noteRepo.Get(ctx, ownerID, noteID, domain.NoteTrashed)
}

func (s *NoteService) Update(ctx context.Context, ownerID, noteID uuid.UUID, input UpdateNoteInput) (*domain.Note, error) {
	changes := map[string]any{}
	var blank []string
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"title", input.Title},
		{"synopsis", input.Synopsis},
		{"content", input.Content},
	} {
		if f.value == nil {
			continue
		}
		if strings.TrimSpace(*f.value) == "" {
			blank = append(blank, f.name)
			continue
		}
		changes[f.name] = *f.value
	}
	if len(blank) > 0 {
		return nil, fmt.Errorf("%w: %s must not be empty", domain.ErrValidation, strings.Join(blank, ", "))
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	return s.transition(ctx, ownerID, noteID, domain.NoteActive, domain.ActionEdit, changes)
}

// Trash soft-deletes an active note.
func (s *NoteService) Trash(ctx context.Context, ownerID, noteID uuid.UUID) (*domain.Note, error) {
	return s.transition(ctx, ownerID, noteID, domain.NoteActive, domain.ActionTrash, map[string]any{})
}

// Restore brings a trashed note back to the active list.
func (s *NoteService) Restore(ctx context.Context, ownerID, noteID uuid.UUID) (*domain.Note, error) {
	return s.transition(ctx, ownerID, noteID, domain.NoteTrashed, domain.ActionRestore, map[string]any{})
}

// Purge permanently deletes a note. Only trashed notes can be purged.
func (s *NoteService) Purge(ctx context.Context, ownerID, noteID uuid.UUID) error {
	if _, err := domain.NoteTrashed.Apply(domain.ActionPurge); err != nil {
		return err
	}
	if err := s.noteRepo.Delete(ctx, ownerID, noteID, domain.NoteTrashed); err != nil {
		return err
	}

	s.record(ctx, &domain.Note{ID: noteID, UserID: ownerID}, domain.EventPurged, nil)
	return nil
}

// SetFavorite sets the favorite flag. It is allowed in both stored states.
func (s *NoteService) SetFavorite(ctx context.Context, ownerID, noteID uuid.UUID, favorite bool) (*domain.Note, error) {
	note, err := s.noteRepo.Update(ctx, ownerID, noteID, "", map[string]any{
		"is_favorite": favorite,
		"updated_at":  time.Now(),
	})
	if err != nil {
		return nil, err
	}

	kind := domain.EventUnfavorited
	if favorite {
		kind = domain.EventFavorited
	}
	s.record(ctx, note, kind, nil)
	return note, nil
}

// History returns the lifecycle events of one of the owner's notes, oldest
// first. It also works for purged notes.
func (s *NoteService) History(ctx context.Context, ownerID, noteID uuid.UUID) ([]*domain.NoteEvent, error) {
	events, err := s.eventRepo.ListByNote(ctx, ownerID, noteID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, domain.ErrNotFound
	}
	return events, nil
}

// transition moves a note that is currently in from through action. The
// state check is part of the update's WHERE clause, so a note in any other
// state, or owned by anyone else, is reported as not found.
func (s *NoteService) transition(ctx context.Context, ownerID, noteID uuid.UUID, from domain.NoteState, action domain.NoteAction, changes map[string]any) (*domain.Note, error) {
	to, err := from.Apply(action)
	if err != nil {
		return nil, err
	}
	if to != from {
		changes["is_deleted"] = to.Trashed()
	}
	changes["updated_at"] = time.Now()

	note, err := s.noteRepo.Update(ctx, ownerID, noteID, from, changes)
	if err != nil {
		return nil, err
	}

	var details map[string]any
	if action == domain.ActionEdit {
		details = map[string]any{"fields": editedFields(changes)}
	}
	s.record(ctx, note, action.EventKind(), details)
	return note, nil
}

func editedFields(changes map[string]any) []string {
	var fields []string
	for _, name := range []string{"title", "synopsis", "content"} {
		if _, ok := changes[name]; ok {
			fields = append(fields, name)
		}
	}
	return fields
}

// record appends to the note's history. The lifecycle change has already
// been stored, so a failure here is logged rather than returned.
func (s *NoteService) record(ctx context.Context, note *domain.Note, kind domain.NoteEventKind, details map[string]any) {
	event := &domain.NoteEvent{
		ID:        uuid.New(),
		NoteID:    note.ID,
		UserID:    note.UserID,
		Kind:      kind,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("failed to record note event",
			zap.String("note_id", note.ID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}
