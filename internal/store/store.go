package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"rtsim/internal/sched"
)

// ErrRunNotFound is returned for unknown run ids.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded simulation.
type Run struct {
	ID        string    `json:"id"`
	Policy    string    `json:"policy"`
	StartedAt time.Time `json:"started_at"`
	Finished  bool      `json:"finished"`
	Now       int64     `json:"now"`   // simulated time when the run was closed
	Ticks     int       `json:"ticks"` // Tick calls recorded
	Tasks     int       `json:"tasks"`
}

// TaskResult is the final state of one task in a finished run.
type TaskResult struct {
	TaskID     sched.TaskID `json:"task_id"`
	Name       string       `json:"name"`
	Arrival    int64        `json:"arrival"`
	Exec       int64        `json:"exec"`
	Deadline   int64        `json:"deadline"`
	Period     int64        `json:"period"`
	Ran        int64        `json:"ran"`
	Releases   int          `json:"releases"`
	Finished   bool         `json:"finished"`
	Missed     bool         `json:"missed"`
	FinishedAt int64        `json:"finished_at"`
}

// Store persists simulation runs: the timeline slots as they are produced
// and the per-task outcome when the run is closed.
type Store interface {
	CreateRun(ctx context.Context, policy string) (string, error)
	AppendSlots(ctx context.Context, runID string, slots []sched.Slot) error
	FinishRun(ctx context.Context, runID string, now int64, ticks int, tasks []sched.Task) error

	ListRuns(ctx context.Context) ([]Run, error)
	GetRun(ctx context.Context, runID string) (Run, error)
	GetSlots(ctx context.Context, runID string) ([]sched.Slot, error)
	GetResults(ctx context.Context, runID string) ([]TaskResult, error)

	Close() error
}

// SQLiteStore implements Store on modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath. Parent
// directories are created as needed.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	return open(ctx, connStr)
}

// NewMemoryStore creates a private in-memory store. Every call gets its own
// database, shared only between the connections of the returned store.
func NewMemoryStore(ctx context.Context) (*SQLiteStore, error) {
	connStr := fmt.Sprintf("file:rtsim-%s?mode=memory&cache=shared", uuid.NewString())
	return open(ctx, connStr)
}

func open(ctx context.Context, connStr string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc.org/sqlite ignores _foreign_keys in the DSN.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	db.SetMaxOpenConns(2)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
