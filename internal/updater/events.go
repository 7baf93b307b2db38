package updater

import "fmt"

// Stage identifies the pipeline stage that produced an event
type Stage string

// Pipeline stages
const (
	StageSearch  Stage = "search"
	StageInstall Stage = "install"
)

// ProgressEvent is a status line for display.
type ProgressEvent struct {
	Stage   Stage
	Addon   string // empty for run-level messages
	Message string
	// Done and Total count install tasks; both are zero for search events
	Done  int
	Total int
}

func (e ProgressEvent) String() string {
	if e.Total > 0 {
		return fmt.Sprintf("[%d/%d] %s", e.Done, e.Total, e.Message)
	}
	return e.Message
}

// WarningEvent reports an addon that could not be updated.
type WarningEvent struct {
	Addon   string
	Message string
	Err     error
}

func (e WarningEvent) String() string {
	return e.Message
}
