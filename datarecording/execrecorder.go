package datarecording

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const execInfoTable = "exec_info"

const timeFormat = "2006-01-02 15:04:05.000000000"

// ExecInfo is a row of the exec_info table.
type ExecInfo struct {
	Property string
	Value    string
}

// execRecorder records how and when the process ran.
type execRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	recorder.CreateTable(execInfoTable, ExecInfo{})

	return &execRecorder{recorder: recorder}
}

// Start remembers the start time, the command line and the working
// directory.
func (e *execRecorder) Start() {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", time.Now().Format(timeFormat)},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	wd, err := os.Getwd()
	if err != nil {
		wd = filepath.Dir(os.Args[0])
	}

	e.entries = append(e.entries, ExecInfo{"Working Directory", wd})
}

// End writes the remembered entries along with the end time.
func (e *execRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(execInfoTable, entry)
	}

	e.recorder.InsertData(execInfoTable,
		ExecInfo{"End Time", time.Now().Format(timeFormat)})

	e.entries = nil
}
