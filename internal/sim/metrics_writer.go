package sim

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"relaychain-sim/internal/telemetry"
)

// MetricsWriter exposes the latest chain state as Prometheus metrics.
type MetricsWriter struct {
	gatherer prometheus.Gatherer

	Tick             prometheus.Gauge
	RelayCount       prometheus.Gauge
	MaxHopM          prometheus.Gauge
	SINRDB           prometheus.Gauge
	CapacityBps      prometheus.Gauge
	LinkDown         prometheus.Gauge
	Deployments      prometheus.Counter
	LinkDownReports  prometheus.Counter
	HopSINRDB        *prometheus.GaugeVec
	HopSINRHistogram prometheus.Histogram
}

// NewMetricsWriter registers the relay chain metrics against reg, defaulting
// to the global registry when nil.
func NewMetricsWriter(reg prometheus.Registerer) (*MetricsWriter, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	m := &MetricsWriter{gatherer: gatherer}

	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&m.Tick, "relaysim_tick", "Last reported simulation tick."},
		{&m.RelayCount, "relaysim_relay_count", "Relays currently deployed in the chain."},
		{&m.MaxHopM, "relaysim_max_hop_meters", "Longest hop of the chain in meters."},
		{&m.SINRDB, "relaysim_end_to_end_sinr_db", "End-to-end SINR of the chain in dB (harmonic combination of hop SINRs). Holds the last finite value while the link is down."},
		{&m.CapacityBps, "relaysim_end_to_end_capacity_bps", "Shannon capacity of the end-to-end SINR; 0 while the link is down."},
		{&m.LinkDown, "relaysim_link_down", "1 when at least one hop is down."},
	}
	for _, g := range gauges {
		var err error
		*g.dst, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: g.name, Help: g.help}), g.name)
		if err != nil {
			return nil, err
		}
	}

	var err error
	m.Deployments, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relaysim_relay_deployments_total",
		Help: "Relays inserted into the chain.",
	}), "relaysim_relay_deployments_total")
	if err != nil {
		return nil, err
	}
	m.LinkDownReports, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relaysim_link_down_reports_total",
		Help: "Reported ticks with the end-to-end link down.",
	}), "relaysim_link_down_reports_total")
	if err != nil {
		return nil, err
	}

	hop := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relaysim_hop_sinr_db",
		Help: "SINR of each hop on the last reported tick, labeled by hop index.",
	}, []string{"hop"})
	if m.HopSINRDB, err = registerGaugeVec(reg, hop, "relaysim_hop_sinr_db"); err != nil {
		return nil, err
	}

	hist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "relaysim_hop_sinr_db_distribution",
		Help:    "Distribution of per-hop SINR over reported ticks.",
		Buckets: []float64{-10, -5, 0, 5, 10, 15, 20, 30, 40, 60},
	})
	if m.HopSINRHistogram, err = registerHistogram(reg, hist, "relaysim_hop_sinr_db_distribution"); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler serves the registered metrics.
func (m *MetricsWriter) Handler() http.Handler {
	gatherer := m.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// WriteStatus updates the chain gauges.
func (m *MetricsWriter) WriteStatus(row telemetry.StatusRow) error {
	m.Tick.Set(float64(row.Tick))
	m.RelayCount.Set(float64(row.RelayCount))
	m.MaxHopM.Set(row.MaxHopM)
	m.CapacityBps.Set(row.EndToEndCapacityBps)
	if !math.IsInf(row.EndToEndSINRDB, 0) && !math.IsNaN(row.EndToEndSINRDB) {
		m.SINRDB.Set(row.EndToEndSINRDB)
	}
	if row.LinkDown {
		m.LinkDown.Set(1)
		m.LinkDownReports.Inc()
	} else {
		m.LinkDown.Set(0)
	}
	return nil
}

// WriteLinks replaces the per-hop gauges with the given hops.
func (m *MetricsWriter) WriteLinks(rows []telemetry.LinkRow) error {
	m.HopSINRDB.Reset()
	for _, r := range rows {
		if math.IsInf(r.SINRDB, 0) || math.IsNaN(r.SINRDB) {
			continue
		}
		m.HopSINRDB.WithLabelValues(strconv.Itoa(r.Index)).Set(r.SINRDB)
		m.HopSINRHistogram.Observe(r.SINRDB)
	}
	return nil
}

// WriteDeployment counts a relay insertion.
func (m *MetricsWriter) WriteDeployment(telemetry.DeploymentRow) error {
	m.Deployments.Inc()
	return nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
