package datasource

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/cascadework/pkg/metrics"
	"github.com/vanderheijden86/cascadework/pkg/model"
)

// SQLiteStore persists timing records in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS stage_timings (
	id               TEXT PRIMARY KEY,
	item_id          TEXT NOT NULL,
	from_stage       TEXT NOT NULL,
	to_stage         TEXT NOT NULL,
	started_at       TIMESTAMP NOT NULL,
	completed_at     TIMESTAMP,
	duration_seconds REAL,
	success          INTEGER NOT NULL DEFAULT 0,
	error_message    TEXT,
	worker_pid       INTEGER
);
CREATE INDEX IF NOT EXISTS idx_stage_timings_pair
	ON stage_timings (from_stage, to_stage, completed_at);
CREATE INDEX IF NOT EXISTS idx_stage_timings_item
	ON stage_timings (item_id);
CREATE INDEX IF NOT EXISTS idx_stage_timings_open
	ON stage_timings (started_at) WHERE completed_at IS NULL;
`

// NewSQLiteStore opens (creating if needed) a timing database at path.
// Pass ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	if path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open timing database: %w", err)
	}

	// Single writer keeps the WAL simple; the monitor's writes are all
	// single-row anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating timing schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Insert persists a new open record.
func (s *SQLiteStore) Insert(rec model.TimingRecord) error {
	defer metrics.Timer(metrics.StoreInsert)()

	if err := rec.Validate(); err != nil {
		return err
	}

	var workerPID any
	if rec.WorkerPID != nil {
		workerPID = *rec.WorkerPID
	}
	_, err := s.db.Exec(`
		INSERT INTO stage_timings (id, item_id, from_stage, to_stage, started_at, worker_pid)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ItemID, rec.FromStage, rec.ToStage, rec.StartedAt.UTC(), workerPID)
	if err != nil {
		return fmt.Errorf("inserting timing record: %w", err)
	}
	return nil
}

// Complete closes an open record. The WHERE clause only matches open
// rows, so a duplicate completion can never overwrite stored values.
func (s *SQLiteStore) Complete(id string, completedAt time.Time, durationSeconds float64, success bool, errorMessage string) error {
	defer metrics.Timer(metrics.StoreComplete)()

	var errMsg any
	if errorMessage != "" {
		errMsg = errorMessage
	}
	res, err := s.db.Exec(`
		UPDATE stage_timings
		SET completed_at = ?, duration_seconds = ?, success = ?, error_message = ?
		WHERE id = ? AND completed_at IS NULL`,
		completedAt.UTC(), durationSeconds, boolToInt(success), errMsg, id)
	if err != nil {
		return fmt.Errorf("completing timing record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("completing timing record: %w", err)
	}
	if affected == 0 {
		// Distinguish missing from already-completed for the caller's
		// log message.
		var exists int
		err := s.db.QueryRow(`SELECT COUNT(*) FROM stage_timings WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking timing record %s: %w", id, err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrAlreadyCompleted
	}
	return nil
}

// Get returns a single record by id.
func (s *SQLiteStore) Get(id string) (model.TimingRecord, error) {
	defer metrics.Timer(metrics.StoreQuery)()

	row := s.db.QueryRow(selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return model.TimingRecord{}, ErrNotFound
	}
	if err != nil {
		return model.TimingRecord{}, fmt.Errorf("loading timing record %s: %w", id, err)
	}
	return rec, nil
}

// CompletedInWindow returns completed records for the stage pair inside
// the window, sorted by duration ascending.
func (s *SQLiteStore) CompletedInWindow(fromStage, toStage string, since, until time.Time) ([]model.TimingRecord, error) {
	defer metrics.Timer(metrics.StoreQuery)()

	rows, err := s.db.Query(selectColumns+`
		WHERE from_stage = ? AND to_stage = ?
		  AND completed_at IS NOT NULL
		  AND completed_at >= ? AND completed_at <= ?
		ORDER BY duration_seconds ASC`,
		fromStage, toStage, since.UTC(), until.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying completed timings: %w", err)
	}
	return collectRecords(rows)
}

// OpenRecords returns every open record, oldest first.
func (s *SQLiteStore) OpenRecords() ([]model.TimingRecord, error) {
	defer metrics.Timer(metrics.StoreQuery)()

	rows, err := s.db.Query(selectColumns + `
		WHERE completed_at IS NULL
		ORDER BY started_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying open timings: %w", err)
	}
	return collectRecords(rows)
}

// OpenRecordsForItem returns the open records for one item.
func (s *SQLiteStore) OpenRecordsForItem(itemID string) ([]model.TimingRecord, error) {
	defer metrics.Timer(metrics.StoreQuery)()

	rows, err := s.db.Query(selectColumns+`
		WHERE item_id = ? AND completed_at IS NULL
		ORDER BY started_at ASC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("querying open timings for item %s: %w", itemID, err)
	}
	return collectRecords(rows)
}

const selectColumns = `
	SELECT id, item_id, from_stage, to_stage, started_at,
	       completed_at, duration_seconds, success, error_message, worker_pid
	FROM stage_timings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.TimingRecord, error) {
	var rec model.TimingRecord
	var completedAt sql.NullTime
	var duration sql.NullFloat64
	var success sql.NullInt64
	var errMsg sql.NullString
	var workerPID sql.NullInt64

	err := row.Scan(
		&rec.ID, &rec.ItemID, &rec.FromStage, &rec.ToStage, &rec.StartedAt,
		&completedAt, &duration, &success, &errMsg, &workerPID,
	)
	if err != nil {
		return model.TimingRecord{}, err
	}

	rec.StartedAt = rec.StartedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		rec.CompletedAt = &t
	}
	if duration.Valid {
		d := duration.Float64
		rec.DurationSeconds = &d
	}
	rec.Success = success.Valid && success.Int64 != 0
	if errMsg.Valid {
		m := errMsg.String
		rec.ErrorMessage = &m
	}
	if workerPID.Valid {
		pid := int(workerPID.Int64)
		rec.WorkerPID = &pid
	}
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]model.TimingRecord, error) {
	defer rows.Close()

	var recs []model.TimingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating timing records: %w", err)
	}
	return recs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
