package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/straye-as/vendor-portal-api/internal/domain"
	"github.com/straye-as/vendor-portal-api/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 3
	enqueueTimeout     = 2 * time.Second
)

// DispatcherConfig tunes the worker pool
type DispatcherConfig struct {
	Workers     int
	SendTimeout time.Duration
	MaxAttempts int
}

// Dispatcher implements Notifier by composing messages onto a Queue that a
// fixed pool of workers drains into a Mailer
type Dispatcher struct {
	queue    Queue
	mailer   Mailer
	composer Composer
	cfg      DispatcherConfig
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewDispatcher creates a dispatcher. Call Start to launch the workers.
func NewDispatcher(queue Queue, mailer Mailer, composer Composer, cfg DispatcherConfig, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return &Dispatcher{
		queue:    queue,
		mailer:   mailer,
		composer: composer,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
	}
}

// Start launches the worker pool. Workers run until Stop is called.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}

	d.logger.Info("notification dispatcher started", zap.Int("workers", d.cfg.Workers))
}

// Stop closes the queue and lets the workers drain what is already buffered.
// Workers are cancelled only if ctx ends before the queue is empty.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = false
	cancel := d.cancel
	d.mu.Unlock()

	if err := d.queue.Close(); err != nil {
		d.logger.Warn("failed to close notification queue", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		cancel()
		d.logger.Info("notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		cancel()
		d.logger.Warn("notification dispatcher stopped before the queue was drained")
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	log := d.logger.With(zap.Int("worker", id))

	for {
		msg, err := d.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrQueueClosed) {
				return
			}
			log.Warn("failed to dequeue notification", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		d.deliver(ctx, log, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, log *zap.Logger, msg Message) {
	// Delivery uses its own deadline so a shutdown does not abort a send mid-flight
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.SendTimeout)
	defer cancel()

	msg.Attempt++
	err := d.mailer.Send(sendCtx, msg)
	if err == nil {
		d.metrics.ObserveNotificationSent(string(msg.Kind))
		log.Debug("notification sent",
			zap.String("id", msg.ID),
			zap.String("kind", string(msg.Kind)),
			zap.Int("attempt", msg.Attempt))
		return
	}

	d.metrics.ObserveNotificationFailed(string(msg.Kind))
	log.Warn("notification delivery failed",
		zap.String("id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.Int("attempt", msg.Attempt),
		zap.Error(err))

	if msg.Attempt < d.cfg.MaxAttempts && ctx.Err() == nil {
		if pushErr := d.queue.Push(context.WithoutCancel(ctx), msg); pushErr == nil {
			return
		}
	}

	d.metrics.ObserveNotificationDropped(string(msg.Kind), "delivery_failed")
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("notification_kind", string(msg.Kind))
		scope.SetExtra("notification_id", msg.ID)
		scope.SetExtra("attempts", msg.Attempt)
		sentry.CaptureException(err)
	})
}

// enqueue pushes a message without ever blocking the caller for long or returning an error
func (d *Dispatcher) enqueue(ctx context.Context, msg Message) {
	msg.ID = uuid.NewString()
	msg.EnqueuedAt = time.Now().UTC()
	if msg.To == "" {
		d.logger.Warn("notification skipped: no recipient", zap.String("kind", string(msg.Kind)))
		d.metrics.ObserveNotificationDropped(string(msg.Kind), "no_recipient")
		return
	}

	// The request context may already be finishing; keep values but not its cancellation
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()

	if err := d.queue.Push(pushCtx, msg); err != nil {
		d.metrics.ObserveNotificationDropped(string(msg.Kind), "enqueue_failed")
		d.logger.Warn("failed to enqueue notification",
			zap.String("kind", string(msg.Kind)),
			zap.String("to", msg.To),
			zap.Error(err))
		return
	}
	d.metrics.ObserveNotificationEnqueued(string(msg.Kind))
}

func (d *Dispatcher) NotifyVendorStatus(ctx context.Context, vendor *domain.Vendor, status domain.VendorStatus, message string) {
	d.enqueue(ctx, d.composer.VendorStatus(vendor, status, message))
}

func (d *Dispatcher) NotifyLeadAssigned(ctx context.Context, vendor *domain.Vendor, lead *domain.Lead, assignedBy string) {
	d.enqueue(ctx, d.composer.LeadAssigned(vendor, lead, assignedBy))
}

func (d *Dispatcher) NotifyVendorRegistered(ctx context.Context, vendor *domain.Vendor) {
	for _, msg := range d.composer.VendorRegistered(vendor) {
		d.enqueue(ctx, msg)
	}
}

func (d *Dispatcher) NotifyUserCreated(ctx context.Context, user *domain.User, temporaryPassword string) {
	d.enqueue(ctx, d.composer.UserCreated(user, temporaryPassword))
}

func (d *Dispatcher) NotifyPasswordReset(ctx context.Context, user *domain.User, token string, expiresAt time.Time) {
	d.enqueue(ctx, d.composer.PasswordReset(user, token, expiresAt))
}

func (d *Dispatcher) NotifyAssignmentReminder(ctx context.Context, vendor *domain.Vendor, lead *domain.Lead, assignedAt time.Time) {
	d.enqueue(ctx, d.composer.AssignmentReminder(vendor, lead, assignedAt))
}
