package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TopologyCollector bundles Prometheus metrics for topology builds and
// service-discovery configuration runs.
type TopologyCollector struct {
	gatherer prometheus.Gatherer

	SdConfigureRuns      *prometheus.CounterVec
	SdConfigureDurations *prometheus.HistogramVec

	TopologyEcus     prometheus.Gauge
	TopologyChannels prometheus.Gauge
	TopologySockets  prometheus.Gauge
	TopologyPdus     prometheus.Gauge
}

// NewTopologyCollector registers the metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewTopologyCollector(reg prometheus.Registerer) (*TopologyCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sd_configure_runs_total",
		Help: "Total number of service-discovery configuration runs, labeled by wiring style and outcome.",
	}, []string{"style", "outcome"})
	runs, err := registerCounterVec(reg, runs, "sd_configure_runs_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sd_configure_duration_seconds",
		Help:    "Service-discovery configuration latency per ECU in seconds.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}, []string{"style"})
	durations, err = registerHistogramVec(reg, durations, "sd_configure_duration_seconds")
	if err != nil {
		return nil, err
	}

	ecus, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "topology_ecus",
		Help: "Current number of ECU instances in the topology.",
	}), "topology_ecus")
	if err != nil {
		return nil, err
	}
	channels, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "topology_channels",
		Help: "Current number of physical channels in the topology.",
	}), "topology_channels")
	if err != nil {
		return nil, err
	}
	sockets, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "topology_sockets",
		Help: "Current number of socket addresses in the topology.",
	}), "topology_sockets")
	if err != nil {
		return nil, err
	}
	pdus, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "topology_pdus",
		Help: "Current number of PDU definitions in the topology.",
	}), "topology_pdus")
	if err != nil {
		return nil, err
	}

	return &TopologyCollector{
		gatherer:             gatherer,
		SdConfigureRuns:      runs,
		SdConfigureDurations: durations,
		TopologyEcus:         ecus,
		TopologyChannels:     channels,
		TopologySockets:      sockets,
		TopologyPdus:         pdus,
	}, nil
}

// ObserveSdConfigure records one configuration run.
func (c *TopologyCollector) ObserveSdConfigure(style string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if c.SdConfigureRuns != nil {
		c.SdConfigureRuns.WithLabelValues(style, outcome).Inc()
	}
	if c.SdConfigureDurations != nil {
		c.SdConfigureDurations.WithLabelValues(style).Observe(duration.Seconds())
	}
}

// SetTopologyCounts drives the gauges after a topology build.
func (c *TopologyCollector) SetTopologyCounts(ecus, channels, sockets, pdus int) {
	if c == nil {
		return
	}
	if c.TopologyEcus != nil {
		c.TopologyEcus.Set(float64(ecus))
	}
	if c.TopologyChannels != nil {
		c.TopologyChannels.Set(float64(channels))
	}
	if c.TopologySockets != nil {
		c.TopologySockets.Set(float64(sockets))
	}
	if c.TopologyPdus != nil {
		c.TopologyPdus.Set(float64(pdus))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *TopologyCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
