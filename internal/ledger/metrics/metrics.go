package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module.
// Tracks state-changing operations, rejections by reason, cache hit rate and
// outbox delivery.
type Metrics struct {
	IdentitiesRegistered prometheus.Counter
	Attestations         prometheus.Counter
	AttestationsRevoked  prometheus.Counter
	VerifiersAdded       prometheus.Counter
	Rejected             *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
	RegistrationCache    *prometheus.CounterVec
	OutboxPublished      *prometheus.CounterVec
}

// New registers the ledger metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the ledger metrics with reg. Tests pass a
// fresh prometheus.NewRegistry() so repeated construction does not panic.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		IdentitiesRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "idledger_identities_registered_total",
			Help: "Total number of identities registered",
		}),
		Attestations: f.NewCounter(prometheus.CounterOpts{
			Name: "idledger_attestations_total",
			Help: "Total number of successful attestations",
		}),
		AttestationsRevoked: f.NewCounter(prometheus.CounterOpts{
			Name: "idledger_attestations_revoked_total",
			Help: "Total number of revoked attestations",
		}),
		VerifiersAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "idledger_verifiers_added_total",
			Help: "Total number of verifiers authorized by the administrator",
		}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idledger_operations_rejected_total",
			Help: "Ledger operations rejected by a precondition, by operation and reason",
		}, []string{"operation", "reason"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idledger_operation_duration_seconds",
			Help:    "Duration of ledger operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		RegistrationCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idledger_registration_cache_total",
			Help: "Registration cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		OutboxPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idledger_outbox_published_total",
			Help: "Ledger events delivered by the outbox relay, by sink",
		}, []string{"sink"}),
	}
}

func (m *Metrics) IncrementIdentitiesRegistered() {
	m.IdentitiesRegistered.Inc()
}

func (m *Metrics) IncrementAttestations() {
	m.Attestations.Inc()
}

func (m *Metrics) IncrementAttestationsRevoked() {
	m.AttestationsRevoked.Inc()
}

func (m *Metrics) IncrementVerifiersAdded() {
	m.VerifiersAdded.Inc()
}

// IncrementRejected records a precondition failure.
func (m *Metrics) IncrementRejected(operation, reason string) {
	m.Rejected.WithLabelValues(operation, reason).Inc()
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// IncrementCache records a registration cache lookup result.
func (m *Metrics) IncrementCache(result string) {
	m.RegistrationCache.WithLabelValues(result).Inc()
}

// AddOutboxPublished records n events delivered to sink.
func (m *Metrics) AddOutboxPublished(sink string, n int) {
	m.OutboxPublished.WithLabelValues(sink).Add(float64(n))
}
