package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity registry.
type Metrics struct {
	CredentialsIssued prometheus.Counter
	CredentialsBurned prometheus.Counter
	SelfMintAttempts  *prometheus.CounterVec
	SanctionsMatches  prometheus.Counter
	MintDuration      prometheus.Histogram
}

// New creates a Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idregistry_credentials_issued_total",
			Help: "Total credentials issued via either mint path",
		}),
		CredentialsBurned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idregistry_credentials_burned_total",
			Help: "Total credentials destroyed",
		}),
		SelfMintAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idregistry_self_mint_attempts_total",
			Help: "Self-mint attempts by outcome",
		}, []string{"outcome"}),
		SanctionsMatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idregistry_sanctions_matches_total",
			Help: "Total sanctions matches recorded against credentials",
		}),
		MintDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "idregistry_mint_duration_seconds",
			Help:    "Duration of mint operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementIssued records a successful issuance.
func (m *Metrics) IncrementIssued() {
	if m != nil {
		m.CredentialsIssued.Inc()
	}
}

// IncrementBurned records a credential destruction.
func (m *Metrics) IncrementBurned() {
	if m != nil {
		m.CredentialsBurned.Inc()
	}
}

// ObserveSelfMint records a self-mint attempt outcome
// (accepted, invalid_signature, expired, underpaid).
func (m *Metrics) ObserveSelfMint(outcome string) {
	if m != nil {
		m.SelfMintAttempts.WithLabelValues(outcome).Inc()
	}
}

// IncrementSanctionsMatch records a recorded screening hit.
func (m *Metrics) IncrementSanctionsMatch() {
	if m != nil {
		m.SanctionsMatches.Inc()
	}
}

// ObserveMint records the duration of a mint operation. Call with the
// operation's start time.
func (m *Metrics) ObserveMint(start time.Time) {
	if m != nil {
		m.MintDuration.Observe(time.Since(start).Seconds())
	}
}
