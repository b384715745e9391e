package coach

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/zeu5/maze-coach/analysis"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS coach_versions (
	version_id  TEXT PRIMARY KEY,
	parent_id   TEXT,
	blob        BLOB NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES coach_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_version (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	version_id  TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES coach_versions(version_id)
);

CREATE TABLE IF NOT EXISTS mission_runs (
	run_id          TEXT PRIMARY KEY,
	level_id        INTEGER NOT NULL,
	algorithm       TEXT NOT NULL,
	episodes        INTEGER NOT NULL,
	success_rate    REAL NOT NULL,
	avg_steps       REAL,
	improvement     REAL NOT NULL,
	mastery_percent INTEGER NOT NULL,
	status          TEXT NOT NULL,
	created_at      TEXT NOT NULL
);
`

// Version describes one saved coach blob.
type Version struct {
	ID        string
	ParentID  string
	CreatedAt time.Time
	Active    bool
}

// RunLog is one row of the mission run history.
type RunLog struct {
	RunID     string
	LevelID   int
	Algorithm string
	Summary   analysis.Summary
	Record    MissionRecord
	CreatedAt time.Time
}

// SQLiteStore keeps every saved blob as a version and points at the active one.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = &SQLiteStore{}

// NewSQLiteStore opens the database at path and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database. It is a no-op on a nil store.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) activeID(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `SELECT version_id FROM active_version WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get active: %w", err)
	}
	return id, nil
}

// Load returns the active blob, or ErrNoState on a fresh database.
func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	id, err := s.activeID(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrNoState
	}
	var blob []byte
	err = s.db.QueryRowContext(ctx, `SELECT blob FROM coach_versions WHERE version_id = ?`, id).Scan(&blob)
	if err != nil {
		return nil, fmt.Errorf("get version %s: %w", id, err)
	}
	return blob, nil
}

// Save inserts a new version and moves the active pointer to it atomically.
func (s *SQLiteStore) Save(ctx context.Context, blob []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	parent, err := s.activeID(ctx, tx)
	if err != nil {
		return err
	}
	var parentID any
	if parent != "" {
		parentID = parent
	}

	id := uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO coach_versions (version_id, parent_id, blob, created_at) VALUES (?, ?, ?, ?)`,
		id, parentID, blob, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO active_version (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		id,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListVersions returns the saved versions, newest first.
func (s *SQLiteStore) ListVersions(ctx context.Context) ([]Version, error) {
	active, err := s.activeID(ctx, s.db)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT version_id, parent_id, created_at FROM coach_versions ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		var v Version
		var parent sql.NullString
		var created string
		if err := rows.Scan(&v.ID, &parent, &created); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.ParentID = parent.String
		v.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		v.Active = v.ID == active
		out = append(out, v)
	}
	return out, rows.Err()
}

// Rollback makes an earlier version active again.
func (s *SQLiteStore) Rollback(ctx context.Context, versionID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM coach_versions WHERE version_id = ?`, versionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("rollback: version %s not found", versionID)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE active_version SET version_id = ? WHERE id = 1`, versionID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// LogRun appends a mission run to the history table and returns its id.
func (s *SQLiteStore) LogRun(ctx context.Context, levelID int, algorithm string, sum analysis.Summary, rec MissionRecord) (string, error) {
	id := uuid.New().String()
	var avg any
	if sum.HasAvgStepsOnSuccess {
		avg = sum.AvgStepsOnSuccess
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mission_runs
		 (run_id, level_id, algorithm, episodes, success_rate, avg_steps, improvement, mastery_percent, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, levelID, algorithm, sum.Episodes, sum.SuccessRate, avg, sum.Improvement,
		rec.MasteryPercent, string(rec.Status), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("log run: %w", err)
	}
	return id, nil
}

// Runs returns the logged runs of a level, oldest first.
func (s *SQLiteStore) Runs(ctx context.Context, levelID int) ([]RunLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, level_id, algorithm, episodes, success_rate, avg_steps, improvement,
		        mastery_percent, status, created_at
		 FROM mission_runs WHERE level_id = ? ORDER BY created_at, rowid`, levelID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunLog
	for rows.Next() {
		var r RunLog
		var avg sql.NullFloat64
		var status, created string
		if err := rows.Scan(&r.RunID, &r.LevelID, &r.Algorithm, &r.Summary.Episodes, &r.Summary.SuccessRate,
			&avg, &r.Summary.Improvement, &r.Record.MasteryPercent, &status, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if avg.Valid {
			r.Summary.AvgStepsOnSuccess = avg.Float64
			r.Summary.HasAvgStepsOnSuccess = true
		}
		r.Record.Status = Status(status)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}
