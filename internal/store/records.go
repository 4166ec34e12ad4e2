package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
)

// Record is the row shape served over the API. Description stays out of
// list responses; Get returns it.
type Record struct {
	DedupGroupID     string     `json:"dedup_group_id"`
	Title            string     `json:"title"`
	Company          string     `json:"company"`
	Location         string     `json:"location"`
	Description      string     `json:"description,omitempty"`
	URL              string     `json:"url"`
	WorkMode         string     `json:"work_mode"`
	Sources          []string   `json:"sources"`
	SourceURLs       []string   `json:"source_urls,omitempty"`
	PostedAt         *time.Time `json:"posted_at,omitempty"`
	ScrapedAt        time.Time  `json:"scraped_at"`
	Stage1Score      float64    `json:"stage1_score"`
	Stage1Skills     []string   `json:"stage1_skills"`
	Stage1Experience string     `json:"stage1_experience"`
	Stage2Score      *float64   `json:"stage2_score,omitempty"`
	Stage2Confidence *float64   `json:"stage2_confidence,omitempty"`
	EffectiveScore   float64    `json:"effective_score"`
	FinalStatus      string     `json:"final_status"`
	RejectReason     string     `json:"reject_reason,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ListRecordsOpts narrows and orders a listing. Sort and Window go through
// whitelists; anything off-list falls back to the default.
type ListRecordsOpts struct {
	Sort   string // score | scraped | company | title
	Window string // 24h | 7d | all
	Status string // rejected | stage1_only | stage2_scored | "" for all
	Limit  int
}

// UpsertRecord writes one record keyed by its dedup group, reporting
// whether the group was new. first_seen_at survives updates; everything
// else follows the latest snapshot.
func (d *DB) UpsertRecord(ctx context.Context, rec *domain.JobRecord) (isNew bool, err error) {
	var one int
	err = d.Pool.QueryRowContext(ctx,
		`SELECT 1 FROM records WHERE dedup_group_id = ? LIMIT 1;`,
		rec.DedupGroupID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		isNew = true
	case err != nil:
		return false, fmt.Errorf("precheck record: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO records (
  dedup_group_id, title, company, location, description, url, work_mode,
  sources, source_urls, posted_at, scraped_at,
  stage1_score, stage1_skills, stage1_experience,
  stage2_score, stage2_confidence, final_status, reject_reason,
  first_seen_at, updated_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(dedup_group_id) DO UPDATE SET
  title = excluded.title,
  company = excluded.company,
  location = excluded.location,
  description = excluded.description,
  url = excluded.url,
  work_mode = excluded.work_mode,
  sources = excluded.sources,
  source_urls = excluded.source_urls,
  posted_at = excluded.posted_at,
  scraped_at = excluded.scraped_at,
  stage1_score = excluded.stage1_score,
  stage1_skills = excluded.stage1_skills,
  stage1_experience = excluded.stage1_experience,
  stage2_score = excluded.stage2_score,
  stage2_confidence = excluded.stage2_confidence,
  final_status = excluded.final_status,
  reject_reason = excluded.reject_reason,
  updated_at = excluded.updated_at;`,
		rec.DedupGroupID, rec.Title, rec.Company, rec.Location, rec.Description,
		rec.URL, rec.WorkMode,
		jsonArr(rec.Sources), jsonArr(rec.SourceURLs),
		timePtrStr(rec.PostedAt), rec.ScrapedAt.UTC().Format(time.RFC3339),
		rec.Stage1Score, jsonArr(rec.Stage1Skills), string(rec.Stage1Experience),
		rec.Stage2Score, rec.Stage2Confidence,
		string(rec.FinalStatus), rec.RejectReason,
		now, now,
	)
	if err != nil {
		return false, fmt.Errorf("upsert record: %w", err)
	}
	return isNew, nil
}

const listColumns = `dedup_group_id, title, company, location, url, work_mode,
  sources, source_urls, posted_at, scraped_at,
  stage1_score, stage1_skills, stage1_experience,
  stage2_score, stage2_confidence, final_status, reject_reason, updated_at`

func (d *DB) ListRecords(ctx context.Context, opts ListRecordsOpts) ([]Record, error) {
	// whitelisted sort columns; anything else would be an injection hole
	sortExpr := map[string]string{
		"score":   "COALESCE(stage2_score, stage1_score) DESC",
		"scraped": "scraped_at DESC",
		"company": "company ASC",
		"title":   "title ASC",
	}[opts.Sort]
	if sortExpr == "" {
		sortExpr = "COALESCE(stage2_score, stage1_score) DESC"
	}

	where := ""
	args := []any{}

	var window time.Duration
	switch opts.Window {
	case "24h":
		window = 24 * time.Hour
	case "all":
	default: // 7d
		window = 7 * 24 * time.Hour
	}
	if window > 0 {
		// RFC3339 UTC strings compare chronologically, so the cutoff
		// binds as plain text.
		where = "WHERE scraped_at >= ?"
		args = append(args, time.Now().UTC().Add(-window).Format(time.RFC3339))
	}

	switch opts.Status {
	case "rejected", "stage1_only", "stage2_scored":
		if where == "" {
			where = "WHERE final_status = ?"
		} else {
			where += " AND final_status = ?"
		}
		args = append(args, opts.Status)
	}

	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 200
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`SELECT %s FROM records %s ORDER BY %s LIMIT ?;`,
		listColumns, where, sortExpr)

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetRecord returns one record with its full description, or sql.ErrNoRows.
func (d *DB) GetRecord(ctx context.Context, groupID string) (Record, error) {
	row := d.Pool.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s, description FROM records WHERE dedup_group_id = ?;`, listColumns),
		groupID)

	return scanRecord(row, true)
}

// CleanupOldRecords deletes records last scraped more than olderThanDays
// ago and reports how many went.
func (d *DB) CleanupOldRecords(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		olderThanDays = 90
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)
	res, err := d.Pool.ExecContext(ctx,
		`DELETE FROM records WHERE scraped_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old records: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CountByStatus reports how many records sit in each final status.
func (d *DB) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT final_status, COUNT(*) FROM records GROUP BY final_status;`)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(rs rowScanner, withDescription bool) (Record, error) {
	var (
		rec       Record
		sources   string
		srcURLs   string
		skills    string
		postedAt  sql.NullString
		scrapedAt string
		updatedAt string
		s2score   sql.NullFloat64
		s2conf    sql.NullFloat64
	)
	dest := []any{
		&rec.DedupGroupID, &rec.Title, &rec.Company, &rec.Location,
		&rec.URL, &rec.WorkMode,
		&sources, &srcURLs, &postedAt, &scrapedAt,
		&rec.Stage1Score, &skills, &rec.Stage1Experience,
		&s2score, &s2conf, &rec.FinalStatus, &rec.RejectReason,
		&updatedAt,
	}
	if withDescription {
		dest = append(dest, &rec.Description)
	}
	if err := rs.Scan(dest...); err != nil {
		return Record{}, err
	}

	_ = json.Unmarshal([]byte(sources), &rec.Sources)
	_ = json.Unmarshal([]byte(srcURLs), &rec.SourceURLs)
	_ = json.Unmarshal([]byte(skills), &rec.Stage1Skills)
	if postedAt.Valid {
		if t, err := time.Parse(time.RFC3339, postedAt.String); err == nil {
			rec.PostedAt = &t
		}
	}
	rec.ScrapedAt, _ = time.Parse(time.RFC3339, scrapedAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if s2score.Valid {
		v := s2score.Float64
		rec.Stage2Score = &v
	}
	if s2conf.Valid {
		v := s2conf.Float64
		rec.Stage2Confidence = &v
	}
	rec.EffectiveScore = rec.Stage1Score
	if rec.Stage2Score != nil {
		rec.EffectiveScore = *rec.Stage2Score
	}
	return rec, nil
}

func jsonArr(ss []string) string {
	if len(ss) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(ss)
	return string(b)
}

func timePtrStr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
