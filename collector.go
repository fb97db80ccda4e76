package molparse

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a Metrics instance to Prometheus. Values are read from
// the atomic counters on every scrape.
type Collector struct {
	metrics *Metrics

	parses           *prometheus.Desc
	parseSeconds     *prometheus.Desc
	cacheLookups     *prometheus.Desc
	atomsCounted     *prometheus.Desc
	structuralFaults *prometheus.Desc
	ruleChecks       *prometheus.Desc
	ruleRejections   *prometheus.Desc
}

// NewCollector creates a Collector for m. namespace prefixes every metric
// name and defaults to "molparse".
func NewCollector(m *Metrics, namespace string) *Collector {
	if namespace == "" {
		namespace = "molparse"
	}
	return &Collector{
		metrics: m,
		parses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "parses_total"),
			"Formulas parsed, by outcome.",
			[]string{"outcome"}, nil,
		),
		parseSeconds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "parse_seconds_average"),
			"Mean parse duration in seconds.",
			nil, nil,
		),
		cacheLookups: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cache", "lookups_total"),
			"Result cache lookups, by result.",
			[]string{"result"}, nil,
		),
		atomsCounted: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "atoms_counted_total"),
			"Atoms summed over accepted formulas.",
			nil, nil,
		),
		structuralFaults: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "structural_faults_total"),
			"Strict-mode accumulator faults.",
			nil, nil,
		),
		ruleChecks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "rule", "checks_total"),
			"Validation rule evaluations.",
			[]string{"rule"}, nil,
		),
		ruleRejections: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "rule", "rejections_total"),
			"Formulas rejected by a validation rule.",
			[]string{"rule"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.parses
	ch <- c.parseSeconds
	ch <- c.cacheLookups
	ch <- c.atomsCounted
	ch <- c.structuralFaults
	ch <- c.ruleChecks
	ch <- c.ruleRejections
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.metrics
	ch <- prometheus.MustNewConstMetric(c.parses, prometheus.CounterValue, float64(m.ParsesAccepted()), "accepted")
	ch <- prometheus.MustNewConstMetric(c.parses, prometheus.CounterValue, float64(m.ParsesRejected()), "rejected")
	ch <- prometheus.MustNewConstMetric(c.parseSeconds, prometheus.GaugeValue, m.AverageParseTime().Seconds())
	ch <- prometheus.MustNewConstMetric(c.cacheLookups, prometheus.CounterValue, float64(m.CacheHits()), "hit")
	ch <- prometheus.MustNewConstMetric(c.cacheLookups, prometheus.CounterValue, float64(m.CacheMisses()), "miss")
	ch <- prometheus.MustNewConstMetric(c.atomsCounted, prometheus.CounterValue, float64(m.AtomsCounted()))
	ch <- prometheus.MustNewConstMetric(c.structuralFaults, prometheus.CounterValue, float64(m.StructuralFaults()))

	for _, rs := range m.AllRuleStats() {
		ch <- prometheus.MustNewConstMetric(c.ruleChecks, prometheus.CounterValue, float64(rs.Checks), rs.Name)
		ch <- prometheus.MustNewConstMetric(c.ruleRejections, prometheus.CounterValue, float64(rs.Rejections), rs.Name)
	}
}
