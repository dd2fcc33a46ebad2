package datarecording

import (
	"os"
	"strings"
	"time"
)

const timeFormat = "2006-01-02 15:04:05.000000000"

// execInfo is one property of a program execution.
type execInfo struct {
	Property string
	Value    string
}

// ExecRecorder records the properties of one program execution into the
// exec_info table.
type ExecRecorder struct {
	tableName string
	recorder  DataRecorder
	entries   []execInfo
}

// NewExecRecorder creates the exec_info table in recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{
		tableName: "exec_info",
		recorder:  recorder,
	}

	e.recorder.CreateTable(e.tableName, execInfo{})

	return e
}

// Start records the start time, the command line and the working
// directory.
func (e *ExecRecorder) Start() {
	e.Record("Start Time", time.Now().Format(timeFormat))
	e.Record("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err == nil {
		e.Record("Working Directory", cwd)
	}
}

// Record adds a property.
func (e *ExecRecorder) Record(property, value string) {
	e.entries = append(e.entries, execInfo{property, value})
}

// End records the end time and writes every property into the database.
func (e *ExecRecorder) End() {
	e.Record("End Time", time.Now().Format(timeFormat))

	for _, entry := range e.entries {
		e.recorder.InsertData(e.tableName, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
