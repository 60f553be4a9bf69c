package planlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matiasvr/fireline/core/model"
)

// SQLiteStore persists plans to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS plans (
        id TEXT PRIMARY KEY,
        ts INTEGER,
        scenario TEXT,
        status TEXT,
        accepted INTEGER DEFAULT 0,
        accepted_ts INTEGER,
        record TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the plan to the database.
func (s *SQLiteStore) Append(ctx context.Context, plan *model.AllocationPlan) error {
	b, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plans (id, ts, scenario, status, record) VALUES (?, ?, ?, ?, ?)`,
		plan.ID, plan.Timestamp.Unix(), plan.Scenario, string(plan.Status), string(b))
	return err
}

// MarkAccepted flags a stored plan as accepted for dispatch.
func (s *SQLiteStore) MarkAccepted(ctx context.Context, planID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE plans SET accepted = 1, accepted_ts = ? WHERE id = ?`, at.Unix(), planID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Query returns stored plans matching q, oldest first.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT record, accepted, accepted_ts FROM plans WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.Unix())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.Unix())
	}
	if q.Scenario != "" {
		query += ` AND scenario = ?`
		args = append(args, q.Scenario)
	}
	if q.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(q.Status))
	}
	if q.AcceptedOnly {
		query += ` AND accepted = 1`
	}
	query += ` ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Get returns the stored plan with the given id.
func (s *SQLiteStore) Get(ctx context.Context, planID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record, accepted, accepted_ts FROM plans WHERE id = ?`, planID)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(src scanner) (Record, error) {
	var data string
	var accepted int
	var acceptedTS sql.NullInt64
	if err := src.Scan(&data, &accepted, &acceptedTS); err != nil {
		return Record{}, err
	}
	var plan model.AllocationPlan
	if err := json.Unmarshal([]byte(data), &plan); err != nil {
		return Record{}, fmt.Errorf("unmarshal plan: %w", err)
	}
	rec := Record{
		PlanID:    plan.ID,
		Scenario:  plan.Scenario,
		Status:    plan.Status,
		Timestamp: plan.Timestamp,
		Accepted:  accepted == 1,
		Plan:      &plan,
	}
	if acceptedTS.Valid {
		rec.AcceptedAt = time.Unix(acceptedTS.Int64, 0).UTC()
	}
	return rec, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
