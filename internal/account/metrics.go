package account

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	accountEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursenese_account_events_total",
			Help: "Account lifecycle operations by outcome",
		},
		[]string{"event", "outcome"},
	)

	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursenese_emails_sent_total",
			Help: "Notification emails by kind and delivery outcome",
		},
		[]string{"kind", "outcome"},
	)
)

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
