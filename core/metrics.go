package core

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Session clear reasons reported on match_session_clears_total.
const (
	ClearReasonExpired      = "expired"
	ClearReasonLogout       = "logout"
	ClearReasonUnauthorized = "unauthorized"
	ClearReasonCorrupt      = "corrupt"
)

// Metrics holds the session counters.
type Metrics struct {
	Logins prometheus.Counter
	Clears *prometheus.CounterVec
}

// NewMetrics creates the session counters and registers them on reg when it
// is not nil. Collectors already registered by another manager are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "match_session_logins_total",
			Help: "Completed logins.",
		}),
		Clears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "match_session_clears_total",
			Help: "Session clears by reason.",
		}, []string{"reason"}),
	}

	if reg == nil {
		return m, nil
	}

	if err := reg.Register(m.Logins); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.Logins = are.ExistingCollector.(prometheus.Counter)
	}
	if err := reg.Register(m.Clears); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.Clears = are.ExistingCollector.(*prometheus.CounterVec)
	}

	return m, nil
}
