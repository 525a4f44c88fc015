package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	locksAcquired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slot_booking",
		Name:      "locks_acquired_total",
		Help:      "Booking locks granted.",
	})

	locksDenied = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slot_booking",
		Name:      "locks_denied_total",
		Help:      "Lock requests denied for lack of capacity.",
	})

	locksSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slot_booking",
		Name:      "locks_swept_total",
		Help:      "Expired locks removed by the sweeper.",
	})

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slot_booking",
			Name:      "booking_transitions_total",
			Help:      "Booking lifecycle transitions by resulting status.",
		},
		[]string{"status"},
	)

	capacityCorrections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "slot_booking",
		Name:      "capacity_corrections_total",
		Help:      "Slots whose counters were repaired by reconciliation.",
	})
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			locksAcquired,
			locksDenied,
			locksSwept,
			bookingTransitions,
			capacityCorrections,
		)
	})
}

func IncLocksAcquired() { locksAcquired.Inc() }

func IncLocksDenied() { locksDenied.Inc() }

func AddLocksSwept(n int64) { locksSwept.Add(float64(n)) }

// IncBookingTransition counts a booking entering the given status,
// booking creation included under "pending".
func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

func AddCapacityCorrections(n int) { capacityCorrections.Add(float64(n)) }
