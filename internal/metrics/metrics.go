package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Workflow metrics
	VendorStatusChanges   *prometheus.CounterVec
	VendorsRegistered     *prometheus.CounterVec
	LeadsCreated          *prometheus.CounterVec
	LeadReassignments     prometheus.Counter
	AssignmentTransitions *prometheus.CounterVec
	LoginAttempts         *prometheus.CounterVec

	// Notification metrics
	NotificationsEnqueued *prometheus.CounterVec
	NotificationsSent     *prometheus.CounterVec
	NotificationsFailed   *prometheus.CounterVec
	NotificationsDropped  *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		VendorStatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vendor_status_changes_total",
				Help: "Vendor status updates by resulting status",
			},
			[]string{"status"},
		),
		VendorsRegistered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vendors_registered_total",
				Help: "Vendor registrations by channel",
			},
			[]string{"channel"}, // self, staff
		),
		LeadsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_created_total",
				Help: "Leads created, split by whether a vendor was assigned at creation",
			},
			[]string{"assigned"},
		),
		LeadReassignments: factory.NewCounter(prometheus.CounterOpts{
			Name: "lead_reassignments_total",
			Help: "Total number of lead reassignments",
		}),
		AssignmentTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assignment_status_transitions_total",
				Help: "Vendor-initiated assignment status changes by target status",
			},
			[]string{"status"},
		),
		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Login attempts by principal kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		NotificationsEnqueued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_enqueued_total",
				Help: "Notifications accepted by the dispatch queue",
			},
			[]string{"kind"},
		),
		NotificationsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_sent_total",
				Help: "Notifications delivered to the mail provider",
			},
			[]string{"kind"},
		),
		NotificationsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_failed_total",
				Help: "Notification delivery attempts that failed",
			},
			[]string{"kind"},
		),
		NotificationsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_dropped_total",
				Help: "Notifications discarded because the queue rejected them or retries ran out",
			},
			[]string{"kind", "reason"},
		),
	}
}

// ObserveHTTPRequest records one served request. route is the matched pattern, not the raw path.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveVendorStatus(status string) {
	if m == nil {
		return
	}
	m.VendorStatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveVendorRegistered(channel string) {
	if m == nil {
		return
	}
	m.VendorsRegistered.WithLabelValues(channel).Inc()
}

func (m *Metrics) ObserveLeadCreated(assigned bool) {
	if m == nil {
		return
	}
	label := "false"
	if assigned {
		label = "true"
	}
	m.LeadsCreated.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveLeadReassigned() {
	if m == nil {
		return
	}
	m.LeadReassignments.Inc()
}

func (m *Metrics) ObserveAssignmentTransition(status string) {
	if m == nil {
		return
	}
	m.AssignmentTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveLogin(kind string, success bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "success"
	}
	m.LoginAttempts.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveNotificationEnqueued(kind string) {
	if m == nil {
		return
	}
	m.NotificationsEnqueued.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveNotificationSent(kind string) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveNotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.NotificationsFailed.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveNotificationDropped(kind, reason string) {
	if m == nil {
		return
	}
	m.NotificationsDropped.WithLabelValues(kind, reason).Inc()
}
