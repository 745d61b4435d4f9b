// Package simulation drives a memory system with the accesses of one trace
// per core.
package simulation

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/memsys"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim"
)

// StatsTable is the table that the final statistics are recorded in.
const StatsTable = "final_stats"

// StatEntry is a row of the final statistics table.
type StatEntry struct {
	Component string
	Stat      string
	Value     float64
}

type coreState struct {
	trace    *trace.Reader
	done     bool
	accesses uint64
}

// A Simulation feeds the traces to the memory system. Cores take turns, one
// access each, and the clock moves forward by one cycle plus the delay of
// every access.
type Simulation struct {
	id     string
	clock  *sim.Clock
	memsys *memsys.Memsys
	cores  []coreState
	limit  uint64

	numAccesses uint64
	finished    bool

	dataRecorder datarecording.DataRecorder
	tracer       *trace.DBTracer

	monitor         *monitoring.Monitor
	progressBar     *monitoring.ProgressBar
	publishInterval uint64

	logger logrus.FieldLogger
}

// ID returns the unique ID of the simulation run.
func (s *Simulation) ID() string {
	return s.id
}

// Memsys returns the simulated memory system.
func (s *Simulation) Memsys() *memsys.Memsys {
	return s.memsys
}

// Now returns the current cycle.
func (s *Simulation) Now() uint64 {
	return s.clock.Now()
}

// NumAccesses returns the number of accesses simulated so far.
func (s *Simulation) NumAccesses() uint64 {
	return s.numAccesses
}

// CoreAccesses returns the number of accesses issued by a core.
func (s *Simulation) CoreAccesses(coreID int) uint64 {
	return s.cores[coreID].accesses
}

// Run simulates until all the traces end, the limit is reached, or the
// context is canceled.
func (s *Simulation) Run(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"id":    s.id,
		"mode":  s.memsys.Mode(),
		"cores": len(s.cores),
		"limit": s.limit,
		"seed":  s.memsys.Seed(),
	}).Info("simulation started")

	for !s.finished {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.turn(); err != nil {
			return err
		}
	}

	s.publish()

	s.logger.WithFields(logrus.Fields{
		"accesses": s.numAccesses,
		"cycles":   s.clock.Now(),
	}).Info("simulation finished")

	return nil
}

// turn gives every unfinished core one access.
func (s *Simulation) turn() error {
	active := false

	for coreID := range s.cores {
		core := &s.cores[coreID]
		if core.done {
			continue
		}

		if s.limit > 0 && s.numAccesses >= s.limit {
			s.finished = true
			return nil
		}

		rec, err := core.trace.Read()
		if errors.Is(err, io.EOF) {
			core.done = true
			s.logger.WithField("core", coreID).Debug("trace ended")

			continue
		}

		if err != nil {
			return err
		}

		active = true

		delay := s.memsys.Access(rec.Addr, rec.Type, coreID)
		s.clock.Advance(1 + delay)

		core.accesses++
		s.numAccesses++

		if s.numAccesses%s.publishInterval == 0 {
			s.publish()
		}
	}

	if !active {
		s.finished = true
	}

	return nil
}

// Snapshot copies the statistics of every component.
func (s *Simulation) Snapshot() monitoring.Snapshot {
	snapshot := monitoring.Snapshot{Cycle: s.clock.Now()}

	snapshot.Components = append(snapshot.Components, monitoring.ComponentState{
		Name:  s.memsys.Name(),
		Stats: s.memsys.Stats(),
	})

	for _, c := range s.memsys.Caches() {
		snapshot.Components = append(snapshot.Components, monitoring.ComponentState{
			Name:  c.Name(),
			Stats: c.Stats(),
		})
	}

	if d := s.memsys.Dram(); d != nil {
		snapshot.Components = append(snapshot.Components, monitoring.ComponentState{
			Name:  "DRAM",
			Stats: d.Stats(),
		})
	}

	return snapshot
}

func (s *Simulation) publish() {
	if s.monitor == nil {
		return
	}

	s.monitor.Publish(s.Snapshot())

	if s.progressBar != nil {
		s.progressBar.Lock()
		s.progressBar.Finished = s.numAccesses
		s.progressBar.Unlock()
	}
}

// Report writes the statistics of the memory system.
func (s *Simulation) Report(w io.Writer) {
	s.memsys.PrintStats(w)
}

// Terminate records the final statistics and closes the data recorder.
func (s *Simulation) Terminate() error {
	if s.progressBar != nil {
		s.monitor.CompleteProgressBar(s.progressBar)
		s.progressBar = nil
	}

	if s.dataRecorder == nil {
		return nil
	}

	s.recordStats()

	err := s.dataRecorder.Close()
	s.dataRecorder = nil

	return err
}

func (s *Simulation) recordStats() {
	s.dataRecorder.CreateTable(StatsTable, StatEntry{})

	insert := func(component, stat string, value float64) {
		s.dataRecorder.InsertData(StatsTable, StatEntry{component, stat, value})
	}

	insert("SIM", "CYCLES", float64(s.clock.Now()))
	insert("SIM", "ACCESSES", float64(s.numAccesses))
	insert("SIM", "SEED", float64(s.memsys.Seed()))

	ms := s.memsys.Stats()
	name := s.memsys.Name()
	insert(name, "IFETCH_ACCESS", float64(ms.IfetchAccess))
	insert(name, "LOAD_ACCESS", float64(ms.LoadAccess))
	insert(name, "STORE_ACCESS", float64(ms.StoreAccess))
	insert(name, "IFETCH_AVGDELAY", ms.AvgIfetchDelay())
	insert(name, "LOAD_AVGDELAY", ms.AvgLoadDelay())
	insert(name, "STORE_AVGDELAY", ms.AvgStoreDelay())

	for _, c := range s.memsys.Caches() {
		cs := c.Stats()
		insert(c.Name(), "READ_ACCESS", float64(cs.ReadAccess))
		insert(c.Name(), "WRITE_ACCESS", float64(cs.WriteAccess))
		insert(c.Name(), "READ_MISS", float64(cs.ReadMiss))
		insert(c.Name(), "WRITE_MISS", float64(cs.WriteMiss))
		insert(c.Name(), "DIRTY_EVICTS", float64(cs.DirtyEvicts))
	}

	if d := s.memsys.Dram(); d != nil {
		ds := d.Stats()
		insert("DRAM", "READ_ACCESS", float64(ds.ReadAccess))
		insert("DRAM", "WRITE_ACCESS", float64(ds.WriteAccess))
		insert("DRAM", "READ_DELAY_AVG", ds.AvgReadDelay())
		insert("DRAM", "WRITE_DELAY_AVG", ds.AvgWriteDelay())
	}
}

// ReadStats returns the final statistics of a component from a recording.
// An empty component returns the statistics of every component.
func ReadStats(
	ctx context.Context,
	reader datarecording.DataReader,
	component string,
) ([]StatEntry, error) {
	if err := reader.MapTable(StatsTable, StatEntry{}); err != nil {
		return nil, err
	}

	q := datarecording.From(StatsTable)
	if component != "" {
		q = q.Equal("Component", component)
	}

	rows, _, err := reader.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	stats := make([]StatEntry, len(rows))
	for i, row := range rows {
		stats[i] = *row.(*StatEntry)
	}

	return stats, nil
}
