package storage

// Repository defines the run-history persistence operations.
type Repository interface {
	SaveRun(run *Run) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]Run, error)
	GetStats() (*Stats, error)
	Close() error
}
