package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	PasswordResetPurgeJobName = "password_reset_purge"
	AssignmentReminderJobName = "assignment_reminder"
)

// PasswordResetPurger deletes expired and consumed password reset tokens
type PasswordResetPurger interface {
	PurgePasswordResets(ctx context.Context) (int64, error)
}

// AssignmentReminder notifies vendors about assignments left unaccepted
type AssignmentReminder interface {
	RemindStaleAssignments(ctx context.Context, olderThan time.Duration) (int, error)
}

// PasswordResetPurgeJob keeps the password_resets table small
type PasswordResetPurgeJob struct {
	purger  PasswordResetPurger
	logger  *zap.Logger
	timeout time.Duration
}

func NewPasswordResetPurgeJob(purger PasswordResetPurger, logger *zap.Logger, timeout time.Duration) *PasswordResetPurgeJob {
	return &PasswordResetPurgeJob{purger: purger, logger: logger, timeout: timeout}
}

// Run executes one purge
func (j *PasswordResetPurgeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	deleted, err := j.purger.PurgePasswordResets(ctx)
	if err != nil {
		j.logger.Error("password reset purge failed", zap.Error(err))
		return
	}
	j.logger.Info("password reset purge completed", zap.Int64("deleted", deleted))
}

// AssignmentReminderJob sends reminders for assignments still "assigned" after a threshold.
// It never changes assignment state.
type AssignmentReminderJob struct {
	reminder  AssignmentReminder
	olderThan time.Duration
	logger    *zap.Logger
	timeout   time.Duration
}

func NewAssignmentReminderJob(reminder AssignmentReminder, olderThan time.Duration, logger *zap.Logger, timeout time.Duration) *AssignmentReminderJob {
	return &AssignmentReminderJob{reminder: reminder, olderThan: olderThan, logger: logger, timeout: timeout}
}

// Run executes one reminder sweep
func (j *AssignmentReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	sent, err := j.reminder.RemindStaleAssignments(ctx, j.olderThan)
	if err != nil {
		j.logger.Error("assignment reminder sweep failed", zap.Error(err))
		return
	}
	j.logger.Info("assignment reminder sweep completed",
		zap.Int("reminders", sent),
		zap.Duration("older_than", j.olderThan))
}

// Register adds the maintenance jobs whose schedule is non-empty
func Register(s *Scheduler, purgeCron, reminderCron string, purge *PasswordResetPurgeJob, remind *AssignmentReminderJob) error {
	if purgeCron != "" && purge != nil {
		if err := s.AddJob(PasswordResetPurgeJobName, purgeCron, purge.Run); err != nil {
			return err
		}
	}
	if reminderCron != "" && remind != nil {
		if err := s.AddJob(AssignmentReminderJobName, reminderCron, remind.Run); err != nil {
			return err
		}
	}
	return nil
}
