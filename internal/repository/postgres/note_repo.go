package postgres

import (
	"context"

	"github.com/dom/notely/internal/domain"
	"github.com/dom/notely/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *noteRepository {
	return &noteRepository{db: db}
}

// belongsTo is the ownership predicate shared by every single-note query:
// the note id is never matched without the owner id beside it.
func belongsTo(ownerID, noteID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("notes.user_id = ? AND notes.id = ?", ownerID, noteID)
	}
}

func ownedBy(ownerID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("notes.user_id = ?", ownerID)
	}
}

// inState filters on the stored soft-delete flag; an empty state matches both.
func inState(state domain.NoteState) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if state == "" {
			return db
		}
		return db.Where("notes.is_deleted = ?", state.Trashed())
	}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	return translateError(r.db.WithContext(ctx).Create(note).Error)
}

func (r *noteRepository) List(ctx context.Context, ownerID uuid.UUID, filter repository.NoteFilter) ([]*domain.Note, error) {
	notes := []*domain.Note{}
	q := r.db.WithContext(ctx).Scopes(ownedBy(ownerID), inState(filter.State))
	if filter.FavoritesOnly {
		q = q.Where("notes.is_favorite = ?", true)
	}
	if err := q.Order("notes.created_at DESC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepository) Get(ctx context.Context, ownerID, noteID uuid.UUID, state domain.NoteState) (*domain.Note, error) {
	var note domain.Note
	err := r.db.WithContext(ctx).
		Scopes(belongsTo(ownerID, noteID), inState(state)).
		First(&note).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &note, nil
}

func (r *noteRepository) Update(ctx context.Context, ownerID, noteID uuid.UUID, state domain.NoteState, changes map[string]any) (*domain.Note, error) {
	var note domain.Note
	res := r.db.WithContext(ctx).
		Model(&note).
		Clauses(clause.Returning{}).
		Scopes(belongsTo(ownerID, noteID), inState(state)).
		Updates(changes)
	if res.Error != nil {
		return nil, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return &note, nil
}

func (r *noteRepository) Delete(ctx context.Context, ownerID, noteID uuid.UUID, state domain.NoteState) error {
	res := r.db.WithContext(ctx).
		Scopes(belongsTo(ownerID, noteID), inState(state)).
		Delete(&domain.Note{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
