package postgres

import (
	"context"

	"github.com/dom/notely/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type noteEventRepository struct {
	db *gorm.DB
}

func NewNoteEventRepository(db *gorm.DB) *noteEventRepository {
	return &noteEventRepository{db: db}
}

func (r *noteEventRepository) Create(ctx context.Context, event *domain.NoteEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *noteEventRepository) ListByNote(ctx context.Context, ownerID, noteID uuid.UUID) ([]*domain.NoteEvent, error) {
	events := []*domain.NoteEvent{}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND note_id = ?", ownerID, noteID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
