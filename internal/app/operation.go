package app

import "lorebook/internal/lore"

// Operation tracks the CLI command an app instance runs. Its ID tags every
// log line written during the command and names pre-import snapshots.
type Operation struct {
	ID         string // UTC timestamp, e.g. "20240115T103000Z"
	Name       string
	Parameters string
	Status     string // "success" or "error"
}

// NewOperation creates an operation stamped with the clock's current time.
func NewOperation(name string, clock lore.Clock) *Operation {
	return &Operation{
		ID:     clock.Now().UTC().Format("20060102T150405Z"),
		Name:   name,
		Status: "success",
	}
}

// Fail marks the operation as failed. A nil error leaves it unchanged.
func (op *Operation) Fail(err error) {
	if err != nil {
		op.Status = "error"
	}
}

// Failed reports whether Fail was called with an error.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}
