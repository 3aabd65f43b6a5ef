package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	connectionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sigchat_realtime_connections",
		Help: "number of connected websocket clients",
	})
	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sigchat_realtime_events_total",
		Help: "number of broadcast events",
	}, []string{"event"})
)

// RegisterMetrics registers the realtime collectors
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{connectionsGauge, eventsCounter} {
		err := reg.Register(c)
		if err != nil {
			return err
		}
	}
	return nil
}
