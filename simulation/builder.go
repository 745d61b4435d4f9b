package simulation

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/memsys"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/sim/id"
)

var (
	// ErrNoMemsys is returned when no memory system is given.
	ErrNoMemsys = errors.New("no memory system")

	// ErrTraceCount is returned when the number of traces differs from the
	// number of cores.
	ErrTraceCount = errors.New("one trace per core is required")

	// ErrRecordWindow is returned when the record window ends before it
	// starts.
	ErrRecordWindow = errors.New("record window ends before it starts")
)

// Builder can be used to build a simulation.
type Builder struct {
	clock           *sim.Clock
	memsys          *memsys.Memsys
	traces          []*trace.Reader
	limit           uint64
	dataRecorder    datarecording.DataRecorder
	recordFrom      uint64
	recordTo        uint64
	monitor         *monitoring.Monitor
	publishInterval uint64
	logger          logrus.FieldLogger
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		publishInterval: 10000,
		logger:          logrus.StandardLogger(),
	}
}

// WithClock sets the clock that the memory system was built with.
func (b Builder) WithClock(c *sim.Clock) Builder {
	b.clock = c
	return b
}

// WithMemsys sets the memory system that serves the accesses.
func (b Builder) WithMemsys(m *memsys.Memsys) Builder {
	b.memsys = m
	return b
}

// WithTraces sets the traces, one per core, in core order.
func (b Builder) WithTraces(traces ...*trace.Reader) Builder {
	b.traces = traces
	return b
}

// WithLimit stops the simulation after the given number of accesses. 0
// means no limit.
func (b Builder) WithLimit(n uint64) Builder {
	b.limit = n
	return b
}

// WithDataRecorder records every access and the final statistics.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.dataRecorder = r
	return b
}

// WithRecordWindow only records the accesses issued in cycles [from, to].
// A to of 0 means no upper bound.
func (b Builder) WithRecordWindow(from, to uint64) Builder {
	b.recordFrom = from
	b.recordTo = to

	return b
}

// WithMonitor publishes snapshots to a monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithPublishInterval sets how many accesses are simulated between two
// snapshots published to the monitor.
func (b Builder) WithPublishInterval(n uint64) Builder {
	b.publishInterval = n
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l logrus.FieldLogger) Builder {
	b.logger = l
	return b
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	if b.memsys == nil {
		return nil, ErrNoMemsys
	}

	if len(b.traces) != b.memsys.NumCores() {
		return nil, fmt.Errorf("%w: %d cores, %d traces",
			ErrTraceCount, b.memsys.NumCores(), len(b.traces))
	}

	if b.recordTo > 0 && b.recordTo < b.recordFrom {
		return nil, fmt.Errorf("%w: [%d, %d]",
			ErrRecordWindow, b.recordFrom, b.recordTo)
	}

	if b.clock == nil {
		b.clock = sim.NewClock(0)
	}

	if b.publishInterval == 0 {
		b.publishInterval = 1
	}

	s := &Simulation{
		id:              id.NewUniqueIDGenerator().Generate(),
		clock:           b.clock,
		memsys:          b.memsys,
		cores:           make([]coreState, len(b.traces)),
		limit:           b.limit,
		dataRecorder:    b.dataRecorder,
		monitor:         b.monitor,
		publishInterval: b.publishInterval,
		logger:          b.logger,
	}

	for i, t := range b.traces {
		s.cores[i].trace = t
	}

	if s.dataRecorder != nil {
		s.tracer = trace.NewDBTracer(s.dataRecorder)
		s.tracer.SetTimeRange(b.recordFrom, b.recordTo)
		s.memsys.AcceptHook(s.tracer)
	}

	if s.monitor != nil {
		s.progressBar = s.monitor.CreateProgressBar("Accesses", s.limit)
	}

	return s, nil
}
