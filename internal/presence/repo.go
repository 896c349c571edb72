package presence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository persists learners and scan records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate applies the schema. Safe to run on every start.
func (r *Repository) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS learners (
		id          UUID PRIMARY KEY,
		first_name  TEXT NOT NULL,
		last_name   TEXT NOT NULL,
		code        TEXT NOT NULL UNIQUE,
		cohort      TEXT NOT NULL DEFAULT '',
		photo_url   TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS attendance_records (
		id          UUID PRIMARY KEY,
		learner_id  UUID NOT NULL REFERENCES learners(id),
		scan_time   TIMESTAMPTZ NOT NULL,
		status      TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS stations (
		station_id  TEXT PRIMARY KEY,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS refresh_tokens (
		token       TEXT PRIMARY KEY,
		station_id  TEXT NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL,
		revoked     BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_records_learner ON attendance_records(learner_id);
	CREATE INDEX IF NOT EXISTS idx_records_scan_time ON attendance_records(scan_time);
	`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// UpsertStation ensures a scan station record exists.
func (r *Repository) UpsertStation(ctx context.Context, stationID string) error {
	if stationID == "" {
		return errors.New("station id required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stations (station_id)
		VALUES ($1)
		ON CONFLICT (station_id) DO NOTHING
	`, stationID)
	return err
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, stationID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, station_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, stationID, expiresAt)
	return err
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}

// ResolveByCode looks a learner up by exact scan-code match. Returns
// (nil, nil) when no learner carries the code.
func (r *Repository) ResolveByCode(ctx context.Context, code string) (*Learner, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, code, cohort, photo_url, created_at
		FROM learners WHERE code = $1
	`, code)
	var l Learner
	if err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Code, &l.Cohort, &l.PhotoURL, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// GetLearner returns a learner by id, (nil, nil) when unknown.
func (r *Repository) GetLearner(ctx context.Context, id string) (*Learner, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, code, cohort, photo_url, created_at
		FROM learners WHERE id = $1
	`, id)
	var l Learner
	if err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Code, &l.Cohort, &l.PhotoURL, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// ListLearners returns all learners ordered by name.
func (r *Repository) ListLearners(ctx context.Context) ([]Learner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, code, cohort, photo_url, created_at
		FROM learners
		ORDER BY last_name, first_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var learners []Learner
	for rows.Next() {
		var l Learner
		if err := rows.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Code, &l.Cohort, &l.PhotoURL, &l.CreatedAt); err != nil {
			return nil, err
		}
		learners = append(learners, l)
	}
	return learners, rows.Err()
}

// CreateLearner inserts a learner, issuing an id and scan code when absent.
func (r *Repository) CreateLearner(ctx context.Context, l Learner) (Learner, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Code == "" {
		l.Code = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO learners (id, first_name, last_name, code, cohort, photo_url)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, l.ID, l.FirstName, l.LastName, l.Code, l.Cohort, l.PhotoURL)
	if err := row.Scan(&l.CreatedAt); err != nil {
		return Learner{}, err
	}
	return l, nil
}

// InsertRecord appends a new scan record. Records are never updated.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, learner_id, scan_time, status)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, rec.ID, rec.LearnerID, rec.ScanTime, rec.Status)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

const recordColumns = `r.id, r.learner_id, r.scan_time, r.status, r.created_at,
	l.first_name, l.last_name, l.code, l.cohort`

// buildRecordsQuery assembles the filtered listing query. Filters are
// conjunctive; unset fields add no clause.
func buildRecordsQuery(f Filter) (string, []any) {
	query := `SELECT ` + recordColumns + `
		FROM attendance_records r
		JOIN learners l ON l.id = r.learner_id`
	var (
		clauses []string
		args    []any
	)
	if f.From != nil {
		args = append(args, *f.From)
		clauses = append(clauses, fmt.Sprintf("r.scan_time >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		clauses = append(clauses, fmt.Sprintf("r.scan_time <= $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if f.Cohort != "" {
		args = append(args, f.Cohort)
		clauses = append(clauses, fmt.Sprintf("l.cohort = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY r.scan_time DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return query, args
}

// FindRecords returns records matching every set filter field, newest first,
// each joined with its learner's public profile fields.
func (r *Repository) FindRecords(ctx context.Context, f Filter) ([]Record, error) {
	query, args := buildRecordsQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// FindByLearner returns all of one learner's records, newest first.
func (r *Repository) FindByLearner(ctx context.Context, learnerID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records r
		JOIN learners l ON l.id = r.learner_id
		WHERE r.learner_id = $1
		ORDER BY r.scan_time DESC
	`, learnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetRecord returns a single record by id.
func (r *Repository) GetRecord(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records r
		JOIN learners l ON l.id = r.learner_id
		WHERE r.id = $1
	`, id)
	var rec Record
	err := row.Scan(&rec.ID, &rec.LearnerID, &rec.ScanTime, &rec.Status, &rec.CreatedAt,
		&rec.FirstName, &rec.LastName, &rec.Code, &rec.Cohort)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.LearnerID, &rec.ScanTime, &rec.Status, &rec.CreatedAt,
			&rec.FirstName, &rec.LastName, &rec.Code, &rec.Cohort); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
