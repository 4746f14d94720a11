package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberSequenceRepository handles database operations for number sequences.
// Each (prefix, year) pair has its own counter; lead and application numbers
// draw from separate prefixes.
type NumberSequenceRepository struct {
	db *gorm.DB
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// WithTx returns a repository bound to the given transaction. Numbers drawn through
// it are released again if that transaction rolls back.
func (r *NumberSequenceRepository) WithTx(tx *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: tx}
}

// GetNextNumber atomically retrieves and increments the sequence for a prefix/year.
// The row is created on first use with ON CONFLICT DO NOTHING so concurrent first
// callers do not collide, then locked with SELECT FOR UPDATE before incrementing.
//
// Returns the next sequence number to use (already incremented in DB).
func (r *NumberSequenceRepository) GetNextNumber(ctx context.Context, prefix string, year int) (int, error) {
	var nextSeq int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		seed := domain.NumberSequence{
			Prefix:       prefix,
			Year:         year,
			LastSequence: 0,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to create number sequence: %w", err)
		}

		var seq domain.NumberSequence
		if err := forUpdate(tx).
			Where("prefix = ? AND year = ?", prefix, year).
			First(&seq).Error; err != nil {
			return fmt.Errorf("failed to get number sequence: %w", err)
		}

		nextSeq = seq.LastSequence + 1
		if err := tx.Model(&domain.NumberSequence{}).
			Where("prefix = ? AND year = ?", prefix, year).
			Updates(map[string]interface{}{
				"last_sequence": nextSeq,
				"updated_at":    now,
			}).Error; err != nil {
			return fmt.Errorf("failed to update number sequence: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return nextSeq, nil
}

// GetCurrentSequence retrieves the current sequence value without incrementing.
// Returns 0 if no sequence exists for the prefix/year.
func (r *NumberSequenceRepository) GetCurrentSequence(ctx context.Context, prefix string, year int) (int, error) {
	var seq domain.NumberSequence
	result := r.db.WithContext(ctx).
		Where("prefix = ? AND year = ?", prefix, year).
		First(&seq)

	if result.Error == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get number sequence: %w", result.Error)
	}

	return seq.LastSequence, nil
}

// ListSequences returns all sequences (useful for debugging/admin)
func (r *NumberSequenceRepository) ListSequences(ctx context.Context) ([]domain.NumberSequence, error) {
	var sequences []domain.NumberSequence
	err := r.db.WithContext(ctx).
		Order("prefix ASC, year DESC").
		Find(&sequences).Error
	return sequences, err
}
