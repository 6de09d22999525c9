package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	packetsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "samtrack",
			Name:      "packets_decoded_total",
			Help:      "Packets decoded, by report kind and data type indicator.",
		},
		[]string{"kind", "dti"},
	)

	packetsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "samtrack",
			Name:      "packets_rejected_total",
			Help:      "Packets rejected before decoding, by reason.",
		},
		[]string{"reason"},
	)

	stationCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "samtrack",
		Name:      "stations",
		Help:      "Stations in the database.",
	})

	messageCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "samtrack",
			Name:      "messages_total",
			Help:      "Messages stored, by type.",
		},
		[]string{"type"},
	)

	eventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "samtrack",
			Name:      "events_total",
			Help:      "Events emitted, by kind.",
		},
		[]string{"kind"},
	)

	transmitCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "samtrack",
			Name:      "transmit_total",
			Help:      "Lines handed out for transmission.",
		},
		[]string{"dest"},
	)

	publishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "samtrack",
		Name:      "publish_errors_total",
		Help:      "Event sink publish failures.",
	})
)

// RegisterMetrics adds the tracker's collectors to reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		packetsDecoded, packetsRejected, stationCount, messageCount,
		eventCount, transmitCount, publishErrors,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}

func dtiLabel(dti byte) string {
	if dti < ' ' || dti > '~' {
		return "none"
	}

	return string([]byte{dti})
}
