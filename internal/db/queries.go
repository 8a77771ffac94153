package db

import (
	"context"
	"database/sql"

	"github.com/bytedance/sonic"

	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/lead"
)

// Run is one processing run: the counts of a normalize/dedup pass whose
// surviving leads are stored under the run's ID.
type Run struct {
	ID          string `json:"id"`
	CreatedAt   int64  `json:"created_at"`
	Files       int    `json:"files"`
	FilesFailed int    `json:"files_failed"`
	Processed   int    `json:"processed"`
	Duplicates  int    `json:"duplicates"`
	Invalid     int    `json:"invalid"`
	Kept        int    `json:"kept"`
}

// Upload is the stored outcome of uploading one lead of a run.
type Upload struct {
	RunID     string `json:"run_id"`
	Position  int    `json:"position"`
	ListID    string `json:"list_id"`
	TaskID    string `json:"task_id,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// InsertRun stores a run and its leads atomically. Leads are numbered
// from 1 in slice order.
func InsertRun(db *sql.DB, run *Run, leads []lead.Record) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO runs (id, created_at, files, files_failed, processed, duplicates, invalid, kept)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.CreatedAt, run.Files, run.FilesFailed, run.Processed, run.Duplicates, run.Invalid, run.Kept)
	if err != nil {
		return errors.NewInternal(err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO leads (
			run_id, position, name, first_name, last_name, title, company,
			email, phone, source, industry, estimated_value, extra_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer stmt.Close()

	for i, r := range leads {
		extra, err := extraJSON(r.Extra)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(
			run.ID, i+1, r.Name, toNullString(r.FirstName), toNullString(r.LastName),
			toNullString(r.Title), toNullString(r.Company), toNullString(r.Email),
			toNullString(r.Phone), toNullString(r.Source), toNullString(r.Industry),
			r.EstimatedValue, extra,
		)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func extraJSON(extra map[string]string) (sql.NullString, error) {
	if len(extra) == 0 {
		return sql.NullString{}, nil
	}
	data, err := sonic.Marshal(extra)
	if err != nil {
		return sql.NullString{}, errors.NewInternal(err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

const runColumns = `id, created_at, files, files_failed, processed, duplicates, invalid, kept`

// GetRun retrieves a run by its ULID.
func GetRun(db *sql.DB, id string) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// LatestRun returns the most recent run.
func LatestRun(db *sql.DB) (*Run, error) {
	// ULIDs sort by creation time; id breaks same-millisecond ties.
	row := db.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id DESC LIMIT 1`)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("latest run")
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// ListRuns returns runs newest first.
func ListRuns(db *sql.DB, limit, offset int) ([]Run, error) {
	rows, err := db.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limitOrAll(limit), offset,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return runs, nil
}

// CountRuns returns the number of stored runs.
func CountRuns(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// ListLeads returns the leads of a run in position order. A non-positive
// limit returns every lead from offset on.
func ListLeads(ctx context.Context, db *sql.DB, runID string, limit, offset int) ([]lead.Record, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, first_name, last_name, title, company, email, phone,
			source, industry, estimated_value, extra_json
		FROM leads
		WHERE run_id = ?
		ORDER BY position
		LIMIT ? OFFSET ?
	`, runID, limitOrAll(limit), offset)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	leads := []lead.Record{}
	for rows.Next() {
		var (
			r                                         lead.Record
			first, last, title, company, email, phone sql.NullString
			source, industry, extra                   sql.NullString
		)
		err := rows.Scan(&r.Name, &first, &last, &title, &company, &email, &phone,
			&source, &industry, &r.EstimatedValue, &extra)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		r.FirstName = first.String
		r.LastName = last.String
		r.Title = title.String
		r.Company = company.String
		r.Email = email.String
		r.Phone = phone.String
		r.Source = source.String
		r.Industry = industry.String
		if extra.Valid {
			if err := sonic.UnmarshalString(extra.String, &r.Extra); err != nil {
				return nil, errors.NewInternal(err)
			}
		}
		leads = append(leads, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return leads, nil
}

// CountLeads returns the number of leads stored for a run.
func CountLeads(db *sql.DB, runID string) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM leads WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// InsertUploads stores upload outcomes in one transaction.
func InsertUploads(db *sql.DB, uploads []Upload) error {
	if len(uploads) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`
		INSERT INTO uploads (run_id, position, list_id, task_id, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer stmt.Close()

	for _, u := range uploads {
		_, err := stmt.Exec(u.RunID, u.Position, u.ListID, toNullString(u.TaskID),
			u.Status, toNullString(u.Error), u.CreatedAt)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListUploads returns every upload attempt of a run, oldest first.
func ListUploads(db *sql.DB, runID string) ([]Upload, error) {
	rows, err := db.Query(`
		SELECT run_id, position, list_id, task_id, status, error, created_at
		FROM uploads
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	uploads := []Upload{}
	for rows.Next() {
		var (
			u             Upload
			taskID, cause sql.NullString
		)
		if err := rows.Scan(&u.RunID, &u.Position, &u.ListID, &taskID, &u.Status, &cause, &u.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		u.TaskID = taskID.String
		u.Error = cause.String
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return uploads, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.CreatedAt, &r.Files, &r.FilesFailed,
		&r.Processed, &r.Duplicates, &r.Invalid, &r.Kept)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// limitOrAll maps a non-positive limit to SQLite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// toNullString stores "" as NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
