package service

import (
	"context"
	"fmt"
	"time"

	"github.com/straye-as/vendor-portal-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Number prefixes. Each prefix has its own counter per year.
const (
	LeadNumberPrefix        = "LEAD"
	ApplicationNumberPrefix = "APP"
)

// NumberSequenceService generates unique, formatted numbers for leads and applications.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: LEAD-2026-000042, APP-2026-000007
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(repo *repository.NumberSequenceRepository, logger *zap.Logger) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// WithTx returns a service drawing numbers inside tx, so a rollback also releases the number
func (s *NumberSequenceService) WithTx(tx *gorm.DB) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   s.repo.WithTx(tx),
		logger: s.logger,
		now:    s.now,
	}
}

// GenerateLeadNumber returns the next lead number, e.g. "LEAD-2026-000042"
func (s *NumberSequenceService) GenerateLeadNumber(ctx context.Context) (string, error) {
	return s.generate(ctx, LeadNumberPrefix)
}

// GenerateApplicationNumber returns the next application number, e.g. "APP-2026-000007"
func (s *NumberSequenceService) GenerateApplicationNumber(ctx context.Context) (string, error) {
	return s.generate(ctx, ApplicationNumberPrefix)
}

// CurrentSequence returns the last issued value for prefix/year without incrementing it
func (s *NumberSequenceService) CurrentSequence(ctx context.Context, prefix string, year int) (int, error) {
	return s.repo.GetCurrentSequence(ctx, prefix, year)
}

func (s *NumberSequenceService) generate(ctx context.Context, prefix string) (string, error) {
	year := s.now().UTC().Year()

	nextSeq, err := s.repo.GetNextNumber(ctx, prefix, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("prefix", prefix),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate %s number: %w", prefix, err)
	}

	number := FormatNumber(prefix, year, nextSeq)

	s.logger.Debug("generated number",
		zap.String("number", number),
		zap.Int("sequence", nextSeq))

	return number, nil
}

// FormatNumber renders PREFIX-YYYY-NNNNNN
func FormatNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}
