package db

import (
	"database/sql"
	"fmt"
)

// CheckRun represents a row in the check_runs table.
type CheckRun struct {
	ID         int
	Submission string
	RunID      string
	Kind       string
	Target     string
	Passed     bool
	NbError    int
	NbWarning  int
	Summary    string
	Timestamp  string
}

// MergeEvent represents a row in the merge_events table.
type MergeEvent struct {
	ID         int
	Submission string
	RunID      string
	Alias      string
	MergeType  string
	Output     string
	Timestamp  string
}

// LogCheckRun inserts a check run record.
func (d *DB) LogCheckRun(submission, runID, kind, target string, passed bool, nbError, nbWarning int, summary string) error {
	_, err := d.conn.Exec(
		`INSERT INTO check_runs (submission, run_id, kind, target, passed, nb_error, nb_warning, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		submission, runID, kind, target, passed, nbError, nbWarning, summary,
	)
	if err != nil {
		return fmt.Errorf("log check run: %w", err)
	}
	return nil
}

// LogMergeEvent inserts a merge event record.
func (d *DB) LogMergeEvent(submission, runID, alias, mergeType, output string) error {
	_, err := d.conn.Exec(
		`INSERT INTO merge_events (submission, run_id, alias, merge_type, output) VALUES (?, ?, ?, ?, ?)`,
		submission, runID, alias, mergeType, output,
	)
	if err != nil {
		return fmt.Errorf("log merge event: %w", err)
	}
	return nil
}

// CheckRuns returns the check runs of a submission, newest first. A limit
// of zero or less returns every run.
func (d *DB) CheckRuns(submission string, limit int) ([]CheckRun, error) {
	query := `SELECT id, submission, run_id, kind, target, passed, nb_error, nb_warning, summary, timestamp
		 FROM check_runs WHERE submission = ? ORDER BY id DESC`
	args := []any{submission}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("get check runs: %w", err)
	}
	defer rows.Close()

	var runs []CheckRun
	for rows.Next() {
		var r CheckRun
		var summary sql.NullString
		if err := rows.Scan(&r.ID, &r.Submission, &r.RunID, &r.Kind, &r.Target, &r.Passed, &r.NbError, &r.NbWarning, &summary, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan check run: %w", err)
		}
		if summary.Valid {
			r.Summary = summary.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestCheckRun returns the most recent run of kind on target, or nil.
func (d *DB) LatestCheckRun(submission, kind, target string) (*CheckRun, error) {
	row := d.conn.QueryRow(
		`SELECT id, submission, run_id, kind, target, passed, nb_error, nb_warning, summary, timestamp
		 FROM check_runs WHERE submission = ? AND kind = ? AND target = ? ORDER BY id DESC LIMIT 1`,
		submission, kind, target,
	)
	var r CheckRun
	var summary sql.NullString
	err := row.Scan(&r.ID, &r.Submission, &r.RunID, &r.Kind, &r.Target, &r.Passed, &r.NbError, &r.NbWarning, &summary, &r.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest check run: %w", err)
	}
	if summary.Valid {
		r.Summary = summary.String
	}
	return &r, nil
}

// MergeEvents returns the merge events of a submission in the order they happened.
func (d *DB) MergeEvents(submission string) ([]MergeEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, submission, run_id, alias, merge_type, output, timestamp
		 FROM merge_events WHERE submission = ? ORDER BY id`,
		submission,
	)
	if err != nil {
		return nil, fmt.Errorf("get merge events: %w", err)
	}
	defer rows.Close()

	var events []MergeEvent
	for rows.Next() {
		var e MergeEvent
		if err := rows.Scan(&e.ID, &e.Submission, &e.RunID, &e.Alias, &e.MergeType, &e.Output, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan merge event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Recorder logs the history of one submission.
type Recorder struct {
	db         *DB
	submission string
}

// Recorder returns a history recorder bound to submission.
func (d *DB) Recorder(submission string) *Recorder {
	return &Recorder{db: d, submission: submission}
}

// LogCheckRun records a check outcome for the bound submission.
func (r *Recorder) LogCheckRun(runID, kind, target string, passed bool, nbError, nbWarning int, summary string) error {
	return r.db.LogCheckRun(r.submission, runID, kind, target, passed, nbError, nbWarning, summary)
}

// LogMergeEvent records a completed merge for the bound submission.
func (r *Recorder) LogMergeEvent(runID, alias, mergeType, output string) error {
	return r.db.LogMergeEvent(r.submission, runID, alias, mergeType, output)
}
