package journal

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// SQLiteStore is a Store backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			operators INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER
		);
		CREATE TABLE IF NOT EXISTS run_operators (
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			label TEXT NOT NULL,
			result TEXT NOT NULL,
			duration_ns INTEGER NOT NULL,
			completed_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, idx)
		);`,
	)
	return err
}

func (s *SQLiteStore) SaveRun(rec *RunRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, status, operators, started_at, finished_at)
		VALUES (?, ?, ?, ?, NULL)`,
		rec.ID,
		string(rec.Status),
		rec.Operators,
		rec.StartedAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) FinishRun(id string, status Status, finishedAt time.Time) error {
	res, err := s.db.Exec(`
		UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		string(status),
		finishedAt.UnixNano(),
		id,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRunNotFound
	}

	return nil
}

func (s *SQLiteStore) AppendOperator(rec *OperatorRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO run_operators (run_id, idx, label, result, duration_ns, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Index,
		rec.Label,
		rec.Result,
		rec.Duration.Nanoseconds(),
		rec.CompletedAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) GetRun(id string) (*RunRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, status, operators, started_at, finished_at
		FROM runs
		WHERE id = ?`,
		id,
	)

	rec, err := scanRun(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	return rec, nil
}

func (s *SQLiteStore) ListRuns(filter RunFilter) ([]*RunRecord, error) {
	query := `
		SELECT id, status, operators, started_at, finished_at
		FROM runs`
	var args []any
	var clauses []string

	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}

	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}
	query = query + " ORDER BY started_at"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*RunRecord

	for rows.Next() {
		rec, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *SQLiteStore) ListOperators(runID string) ([]*OperatorRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, idx, label, result, duration_ns, completed_at
		FROM run_operators
		WHERE run_id = ?
		ORDER BY idx`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*OperatorRecord

	for rows.Next() {
		var rec OperatorRecord
		var durationNs, completedAt int64

		if err := rows.Scan(&rec.RunID, &rec.Index, &rec.Label, &rec.Result, &durationNs, &completedAt); err != nil {
			return nil, err
		}

		rec.Duration = time.Duration(durationNs)
		rec.CompletedAt = time.Unix(0, completedAt)
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func scanRun(scan func(dest ...any) error) (*RunRecord, error) {
	var rec RunRecord
	var statusStr string
	var startedAt int64
	var finishedAt sql.NullInt64

	if err := scan(&rec.ID, &statusStr, &rec.Operators, &startedAt, &finishedAt); err != nil {
		return nil, err
	}

	rec.Status = Status(statusStr)
	rec.StartedAt = time.Unix(0, startedAt)
	if finishedAt.Valid {
		rec.FinishedAt = time.Unix(0, finishedAt.Int64)
	}

	return &rec, nil
}
