package trace

import (
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/memsys"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/sim/id"
)

// AccessTable is the table the DBTracer writes to.
const AccessTable = "memsys_access"

// AccessEntry is a row of the access table.
type AccessEntry struct {
	ID    string
	Cycle uint64
	Core  int
	Type  string
	Addr  uint64
	Delay uint64
}

// DBTracer is a memory system hook that stores every access into a
// DataRecorder.
type DBTracer struct {
	backend datarecording.DataRecorder
	idGen   id.IDGenerator

	startCycle, endCycle uint64
}

// NewDBTracer creates a DBTracer and the table it writes to.
func NewDBTracer(backend datarecording.DataRecorder) *DBTracer {
	backend.CreateTable(AccessTable, AccessEntry{})

	return &DBTracer{
		backend: backend,
		idGen:   id.NewIDGenerator(),
	}
}

// SetTimeRange limits the tracing to accesses issued in [start, end]. An
// end of 0 means no upper bound.
func (t *DBTracer) SetTimeRange(start, end uint64) {
	t.startCycle = start
	t.endCycle = end
}

// Func records the access carried by a memsys access hook.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != memsys.HookPosAccess {
		return
	}

	if ctx.Now < t.startCycle || (t.endCycle > 0 && ctx.Now > t.endCycle) {
		return
	}

	rec := ctx.Item.(memsys.AccessRecord)

	t.backend.InsertData(AccessTable, AccessEntry{
		ID:    t.idGen.Generate(),
		Cycle: ctx.Now,
		Core:  rec.CoreID,
		Type:  rec.Type.String(),
		Addr:  rec.Addr,
		Delay: rec.Delay,
	})
}
