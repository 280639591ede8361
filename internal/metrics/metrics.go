// Package metrics exposes dashboard activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "orderdash"

// Recorder collects feed, toast and receipt metrics. It is safe for
// concurrent use.
type Recorder struct {
	feedUpdates   *prometheus.CounterVec
	feedRecords   *prometheus.GaugeVec
	feedErrors    *prometheus.CounterVec
	toastsShown   *prometheus.CounterVec
	toastsRemoved *prometheus.CounterVec
	receipts      *prometheus.CounterVec
}

// New registers the dashboard metrics with reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		feedUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "updates_total",
			Help:      "Snapshots received per collection",
		}, []string{"collection"}),

		feedRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "records",
			Help:      "Records in the latest snapshot per collection",
		}, []string{"collection"}),

		feedErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "errors_total",
			Help:      "Subscription failures per collection",
		}, []string{"collection"}),

		toastsShown: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "toast",
			Name:      "shown_total",
			Help:      "Toasts shown by notification type",
		}, []string{"type"}),

		toastsRemoved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "toast",
			Name:      "removed_total",
			Help:      "Toasts removed by reason",
		}, []string{"reason"}),

		receipts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receipt",
			Name:      "saves_total",
			Help:      "Receipt writes by sink and result",
		}, []string{"sink", "result"}),
	}
}

func (r *Recorder) FeedUpdated(collection string, records int) {
	r.feedUpdates.WithLabelValues(collection).Inc()
	r.feedRecords.WithLabelValues(collection).Set(float64(records))
}

func (r *Recorder) FeedFailed(collection string) {
	r.feedErrors.WithLabelValues(collection).Inc()
}

func (r *Recorder) ToastShown(kind string) {
	r.toastsShown.WithLabelValues(kind).Inc()
}

func (r *Recorder) ToastRemoved(reason string) {
	r.toastsRemoved.WithLabelValues(reason).Inc()
}

func (r *Recorder) ReceiptSaved(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.receipts.WithLabelValues(sink, result).Inc()
}
