package repository

import (
	"context"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/domain"
	"gorm.io/gorm"
)

// LeadEventRepository is append-only: there is no update or delete
type LeadEventRepository struct {
	db *gorm.DB
}

func NewLeadEventRepository(db *gorm.DB) *LeadEventRepository {
	return &LeadEventRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *LeadEventRepository) WithTx(tx *gorm.DB) *LeadEventRepository {
	return &LeadEventRepository{db: tx}
}

func (r *LeadEventRepository) Create(ctx context.Context, event *domain.LeadEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// Record is a convenience method to append a timeline entry
func (r *LeadEventRepository) Record(
	ctx context.Context,
	leadID uint,
	actorType domain.ActorType,
	actorID *uint,
	eventType domain.EventType,
	message string,
) (*domain.LeadEvent, error) {
	event := &domain.LeadEvent{
		LeadID:    leadID,
		ActorType: actorType,
		ActorID:   actorID,
		EventType: eventType,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// ListByLeadID returns all events for a lead, newest first
func (r *LeadEventRepository) ListByLeadID(ctx context.Context, leadID uint) ([]domain.LeadEvent, error) {
	var events []domain.LeadEvent
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC, id DESC").
		Find(&events).Error
	return events, err
}

// CountByLeadID returns the number of events recorded for a lead
func (r *LeadEventRepository) CountByLeadID(ctx context.Context, leadID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LeadEvent{}).
		Where("lead_id = ?", leadID).
		Count(&count).Error
	return count, err
}
