package metric

import "github.com/prometheus/client_golang/prometheus"

// PhaseSource reports the current session phase and the set of all phases.
type PhaseSource interface {
	CurrentPhase() string
	Phases() []string
}

// Collector reports the current session phase as a gauge that is 1 for the
// active phase and 0 for every other.
type Collector struct {
	source PhaseSource
	desc   *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector over the given phase source.
func NewCollector(source PhaseSource) *Collector {
	return &Collector{
		source: source,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "phase"),
			"Current session phase.",
			[]string{"phase"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	current := c.source.CurrentPhase()
	for _, phase := range c.source.Phases() {
		v := 0.0
		if phase == current {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, v, phase)
	}
}
