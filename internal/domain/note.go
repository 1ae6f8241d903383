package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NoteState is the lifecycle state of a note. Only Active and Trashed are
// ever stored; Purged means the row no longer exists.
type NoteState string

const (
	NoteActive  NoteState = "active"
	NoteTrashed NoteState = "trashed"
	NotePurged  NoteState = "purged"
)

type NoteAction string

const (
	ActionEdit    NoteAction = "edit"
	ActionTrash   NoteAction = "trash"
	ActionRestore NoteAction = "restore"
	ActionPurge   NoteAction = "purge"
)

var noteTransitions = map[NoteState]map[NoteAction]NoteState{
	NoteActive: {
		ActionEdit:  NoteActive,
		ActionTrash: NoteTrashed,
	},
	NoteTrashed: {
		ActionRestore: NoteActive,
		ActionPurge:   NotePurged,
	},
}

// Apply returns the state reached by performing action from s.
func (s NoteState) Apply(action NoteAction) (NoteState, error) {
	next, ok := noteTransitions[s][action]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a %s note", ErrInvalidTransition, action, s)
	}
	return next, nil
}

// Trashed reports the soft-delete flag value stored for s.
func (s NoteState) Trashed() bool {
	return s == NoteTrashed
}

func (s NoteState) IsValid() bool {
	return s == NoteActive || s == NoteTrashed
}

type Note struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID     uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Title      string    `json:"title" gorm:"not null"`
	Synopsis   string    `json:"synopsis" gorm:"not null"`
	Content    string    `json:"content" gorm:"not null"`
	IsFavorite bool      `json:"isFavorite" gorm:"not null;default:false"`
	IsDeleted  bool      `json:"isDeleted" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (n *Note) State() NoteState {
	if n.IsDeleted {
		return NoteTrashed
	}
	return NoteActive
}

type NoteEventKind string

const (
	EventCreated     NoteEventKind = "created"
	EventUpdated     NoteEventKind = "updated"
	EventTrashed     NoteEventKind = "trashed"
	EventRestored    NoteEventKind = "restored"
	EventPurged      NoteEventKind = "purged"
	EventFavorited   NoteEventKind = "favorited"
	EventUnfavorited NoteEventKind = "unfavorited"
)

var actionEvents = map[NoteAction]NoteEventKind{
	ActionEdit:    EventUpdated,
	ActionTrash:   EventTrashed,
	ActionRestore: EventRestored,
	ActionPurge:   EventPurged,
}

func (a NoteAction) EventKind() NoteEventKind {
	return actionEvents[a]
}

// NoteEvent is one entry of a note's lifecycle history. Events are kept
// after the note itself is purged.
type NoteEvent struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	NoteID    uuid.UUID         `json:"noteId" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID         `json:"userId" gorm:"type:uuid;not null;index"`
	Kind      NoteEventKind     `json:"kind" gorm:"not null"`
	Details   datatypes.JSONMap `json:"details,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"createdAt"`
}
