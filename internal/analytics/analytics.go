package analytics

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"
)

// DB is the interface for database queries used by analytics.
type DB interface {
	Conn() *sql.DB
}

// timestamp formats to try when parsing timestamps from the database
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, f := range timestampFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// CheckPassRate holds pass statistics for one check kind.
type CheckPassRate struct {
	Kind        string  `json:"kind"`
	Total       int     `json:"total"`
	PassRate    float64 `json:"pass_rate_pct"`
	AvgErrors   float64 `json:"avg_errors"`
	AvgWarnings float64 `json:"avg_warnings"`
	MostFailed  string  `json:"most_failed"`
}

// QueryCheckPassRates returns pass rates and average finding counts per
// check kind across all submissions.
func QueryCheckPassRates(database DB, since string) ([]CheckPassRate, error) {
	query := `
		SELECT kind,
			COUNT(*) as total,
			SUM(CASE WHEN passed = 1 THEN 1 ELSE 0 END) as passed,
			AVG(nb_error),
			AVG(nb_warning)
		FROM check_runs`

	args := []interface{}{}
	if since != "" {
		query += ` WHERE timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY kind`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query check pass rates: %w", err)
	}
	defer rows.Close()

	var results []CheckPassRate
	for rows.Next() {
		var r CheckPassRate
		var passed int
		var avgErrors, avgWarnings float64
		if err := rows.Scan(&r.Kind, &r.Total, &passed, &avgErrors, &avgWarnings); err != nil {
			return nil, fmt.Errorf("scan check pass rate: %w", err)
		}
		r.PassRate = pct(passed, r.Total)
		r.AvgErrors = math.Round(avgErrors*10) / 10
		r.AvgWarnings = math.Round(avgWarnings*10) / 10
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Target that failed most often per kind
	for i := range results {
		mfQuery := `
			SELECT target, COUNT(*) as cnt
			FROM check_runs
			WHERE kind = ? AND passed = 0`
		mfArgs := []interface{}{results[i].Kind}
		if since != "" {
			mfQuery += ` AND timestamp >= ?`
			mfArgs = append(mfArgs, since)
		}
		mfQuery += ` GROUP BY target ORDER BY cnt DESC, target LIMIT 1`

		var target string
		var cnt int
		if err := database.Conn().QueryRow(mfQuery, mfArgs...).Scan(&target, &cnt); err == nil {
			results[i].MostFailed = target
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Kind < results[j].Kind
	})
	return results, nil
}

// RunDurations holds wall-clock statistics of validation runs, in minutes.
type RunDurations struct {
	Runs int     `json:"runs"`
	Avg  float64 `json:"avg_minutes"`
	P50  float64 `json:"p50_minutes"`
	P95  float64 `json:"p95_minutes"`
}

// QueryRunDurations measures each validation run from its first to its last
// recorded check. Runs with a single check have no measurable duration and
// are skipped.
func QueryRunDurations(database DB, since string) (RunDurations, error) {
	query := `
		SELECT run_id, MIN(timestamp), MAX(timestamp), COUNT(*)
		FROM check_runs`

	args := []interface{}{}
	if since != "" {
		query += ` WHERE timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY run_id`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return RunDurations{}, fmt.Errorf("query run durations: %w", err)
	}
	defer rows.Close()

	var durations []float64
	for rows.Next() {
		var runID, startTS, endTS string
		var checks int
		if err := rows.Scan(&runID, &startTS, &endTS, &checks); err != nil {
			return RunDurations{}, fmt.Errorf("scan run duration: %w", err)
		}
		if checks < 2 {
			continue
		}
		start, err := parseTimestamp(startTS)
		if err != nil {
			continue
		}
		end, err := parseTimestamp(endTS)
		if err != nil {
			continue
		}
		durations = append(durations, end.Sub(start).Minutes())
	}
	if err := rows.Err(); err != nil {
		return RunDurations{}, err
	}

	sort.Float64s(durations)
	return RunDurations{
		Runs: len(durations),
		Avg:  avg(durations),
		P50:  percentile(durations, 50),
		P95:  percentile(durations, 95),
	}, nil
}

// MergeCount holds how often a merge type was executed.
type MergeCount struct {
	MergeType   string `json:"merge_type"`
	Merges      int    `json:"merges"`
	Submissions int    `json:"submissions"`
}

// QueryMergeCounts returns executed merges grouped by merge type.
func QueryMergeCounts(database DB, since string) ([]MergeCount, error) {
	query := `
		SELECT merge_type, COUNT(*), COUNT(DISTINCT submission)
		FROM merge_events`

	args := []interface{}{}
	if since != "" {
		query += ` WHERE timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY merge_type ORDER BY merge_type`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query merge counts: %w", err)
	}
	defer rows.Close()

	var results []MergeCount
	for rows.Next() {
		var mc MergeCount
		if err := rows.Scan(&mc.MergeType, &mc.Merges, &mc.Submissions); err != nil {
			return nil, fmt.Errorf("scan merge count: %w", err)
		}
		results = append(results, mc)
	}
	return results, rows.Err()
}

// --- helpers ---

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return math.Round(sorted[lower]*10) / 10
	}
	weight := rank - float64(lower)
	return math.Round((sorted[lower]*(1-weight)+sorted[upper]*weight)*10) / 10
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
