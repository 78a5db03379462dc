package metrics

import "github.com/prometheus/client_golang/prometheus"

// AuthMetrics counts authorization flow events by outcome
type AuthMetrics struct {
	events *prometheus.CounterVec
}

func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esiagate_auth_events_total",
			Help: "Authorization flow events by kind and result.",
		},
		[]string{"event", "result"},
	)

	if reg != nil {
		reg.MustRegister(events)
	}

	return &AuthMetrics{events: events}
}

func (m *AuthMetrics) Record(event string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.events.WithLabelValues(event, result).Inc()
}
