// Package state records simulation run history in SQLite. It stores
// run metadata only; simulation results go to the output writer, and
// model definitions stay on disk.
package state

import "time"

// RunStatus is the lifecycle state of a simulation run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// Run is one recorded simulation run.
type Run struct {
	ID          string
	Project     string
	Model       string
	Start       float64
	Stop        float64
	DT          float64
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Store is the persistence interface for run history.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	CreateRun(projectName, model string, start, stop, dt float64) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
}
