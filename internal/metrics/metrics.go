package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ghe_billing"

// Recorder counts generated documents and payment transitions.
type Recorder struct {
	documents *prometheus.CounterVec
	payments  prometheus.Counter
	paid      prometheus.Counter
	actions   *prometheus.CounterVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_generated_total",
			Help:      "Statements and invoices rendered, by kind.",
		}, []string{"kind"}),
		payments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_created_total",
			Help:      "Payment records created.",
		}),
		paid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_marked_paid_total",
			Help:      "Payments moved from unpaid to paid.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_actions_total",
			Help:      "Admin actions handled, by action and outcome.",
		}, []string{"action", "outcome"}),
	}
	reg.MustRegister(r.documents, r.payments, r.paid, r.actions)
	return r
}

func (r *Recorder) DocumentGenerated(kind string) {
	r.documents.WithLabelValues(kind).Inc()
}

func (r *Recorder) PaymentCreated() {
	r.payments.Inc()
}

func (r *Recorder) PaymentMarkedPaid() {
	r.paid.Inc()
}

func (r *Recorder) ActionHandled(action, outcome string) {
	r.actions.WithLabelValues(action, outcome).Inc()
}
