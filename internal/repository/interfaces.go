package repository

import (
	"context"

	"github.com/dom/notely/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetByLogin matches login against either the email or the username.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	// Taken reports whether username or email is used, as either a username or
	// an email, by a live user other than exclude.
	Taken(ctx context.Context, username, email string, exclude uuid.UUID) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// NoteFilter narrows a listing of one owner's notes.
type NoteFilter struct {
	State         domain.NoteState
	FavoritesOnly bool
}

// NoteRepository never reads or writes a note without the owner id in the
// query predicate.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	List(ctx context.Context, ownerID uuid.UUID, filter NoteFilter) ([]*domain.Note, error)
	// Get returns the note only when it is owned by ownerID and in state.
	Get(ctx context.Context, ownerID, noteID uuid.UUID, state domain.NoteState) (*domain.Note, error)
	// Update applies changes to the note when it is owned by ownerID and in
	// state (any stored state when state is empty) and returns the new row.
	Update(ctx context.Context, ownerID, noteID uuid.UUID, state domain.NoteState, changes map[string]any) (*domain.Note, error)
	// Delete permanently removes the note when it is owned by ownerID and in state.
	Delete(ctx context.Context, ownerID, noteID uuid.UUID, state domain.NoteState) error
}

type NoteEventRepository interface {
	Create(ctx context.Context, event *domain.NoteEvent) error
	ListByNote(ctx context.Context, ownerID, noteID uuid.UUID) ([]*domain.NoteEvent, error)
}

type Repositories struct {
	User      UserRepository
	Note      NoteRepository
	NoteEvent NoteEventRepository
}
