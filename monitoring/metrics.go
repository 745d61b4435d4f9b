package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/dram"
	"github.com/sarchlab/cachesim/mem/memsys"
)

const namespace = "cachesim"

// metrics mirrors the latest snapshot as Prometheus gauges. Counters cannot
// be set from a snapshot, so monotonic values are exported as gauges too.
type metrics struct {
	cycle           prometheus.Gauge
	cacheAccesses   *prometheus.GaugeVec
	cacheMisses     *prometheus.GaugeVec
	cacheDirtyEvict *prometheus.GaugeVec
	memsysAccesses  *prometheus.GaugeVec
	memsysAvgDelay  *prometheus.GaugeVec
	dramAccesses    *prometheus.GaugeVec
	dramAvgDelay    *prometheus.GaugeVec
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		cycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle",
			Help:      "Current logical cycle of the simulation.",
		}),
		cacheAccesses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "accesses",
			Help:      "Number of accesses to a cache.",
		}, []string{"cache", "kind"}),
		cacheMisses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses",
			Help:      "Number of misses of a cache.",
		}, []string{"cache", "kind"}),
		cacheDirtyEvict: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "dirty_evicts",
			Help:      "Number of dirty lines evicted from a cache.",
		}, []string{"cache"}),
		memsysAccesses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "memsys",
			Name:      "accesses",
			Help:      "Number of accesses served by the memory system.",
		}, []string{"type"}),
		memsysAvgDelay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "memsys",
			Name:      "avg_delay_cycles",
			Help:      "Average delay of an access to the memory system.",
		}, []string{"type"}),
		dramAccesses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dram",
			Name:      "accesses",
			Help:      "Number of DRAM accesses.",
		}, []string{"kind"}),
		dramAvgDelay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dram",
			Name:      "avg_delay_cycles",
			Help:      "Average latency of a DRAM access.",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		m.cycle,
		m.cacheAccesses,
		m.cacheMisses,
		m.cacheDirtyEvict,
		m.memsysAccesses,
		m.memsysAvgDelay,
		m.dramAccesses,
		m.dramAvgDelay,
	)

	return m
}

func (m *metrics) update(s Snapshot) {
	m.cycle.Set(float64(s.Cycle))

	for _, c := range s.Components {
		switch stats := c.Stats.(type) {
		case cache.Stats:
			m.updateCache(c.Name, stats)
		case memsys.Stats:
			m.updateMemsys(stats)
		case dram.Stats:
			m.updateDram(stats)
		}
	}
}

func (m *metrics) updateCache(name string, s cache.Stats) {
	m.cacheAccesses.WithLabelValues(name, "read").Set(float64(s.ReadAccess))
	m.cacheAccesses.WithLabelValues(name, "write").Set(float64(s.WriteAccess))
	m.cacheMisses.WithLabelValues(name, "read").Set(float64(s.ReadMiss))
	m.cacheMisses.WithLabelValues(name, "write").Set(float64(s.WriteMiss))
	m.cacheDirtyEvict.WithLabelValues(name).Set(float64(s.DirtyEvicts))
}

func (m *metrics) updateMemsys(s memsys.Stats) {
	types := []struct {
		t     memsys.AccessType
		count uint64
		avg   float64
	}{
		{memsys.AccessIfetch, s.IfetchAccess, s.AvgIfetchDelay()},
		{memsys.AccessLoad, s.LoadAccess, s.AvgLoadDelay()},
		{memsys.AccessStore, s.StoreAccess, s.AvgStoreDelay()},
	}

	for _, t := range types {
		m.memsysAccesses.WithLabelValues(t.t.String()).Set(float64(t.count))
		m.memsysAvgDelay.WithLabelValues(t.t.String()).Set(t.avg)
	}
}

func (m *metrics) updateDram(s dram.Stats) {
	m.dramAccesses.WithLabelValues("read").Set(float64(s.ReadAccess))
	m.dramAccesses.WithLabelValues("write").Set(float64(s.WriteAccess))
	m.dramAvgDelay.WithLabelValues("read").Set(s.AvgReadDelay())
	m.dramAvgDelay.WithLabelValues("write").Set(s.AvgWriteDelay())
}
