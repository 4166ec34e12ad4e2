package dedup

import (
	"strings"

	"github.com/google/uuid"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/util"
)

// Config tunes the fuzzy-merge thresholds. Zero values pick the defaults.
type Config struct {
	TitleThreshold   float64
	CompanyThreshold float64
}

func (c Config) withDefaults() Config {
	if c.TitleThreshold <= 0 {
		c.TitleThreshold = 0.90
	}
	if c.CompanyThreshold <= 0 {
		c.CompanyThreshold = 0.80
	}
	return c
}

// Stats summarizes one dedup pass.
type Stats struct {
	Seen      int
	Groups    int
	Merged    int
	Malformed int
}

type group struct {
	rec         *domain.JobRecord
	normTitle   string
	normCompany string
	urlSeen     map[string]bool
	srcSeen     map[string]bool
}

// Engine folds raw postings into deduplicated job records. Three exact
// identity signals (canonical URL, content hash, normalized title+company)
// are checked before the fuzzy pass, which only compares postings whose
// employers share a bucket.
//
// Not safe for concurrent use; the pipeline feeds it from one goroutine.
type Engine struct {
	cfg Config

	order   []*group
	byURL   map[string]*group
	byHash  map[string]*group
	byPair  map[string]*group
	buckets map[string][]*group

	rejected []domain.JobRecord
	seen     int
	merged   int
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:     cfg.withDefaults(),
		byURL:   map[string]*group{},
		byHash:  map[string]*group{},
		byPair:  map[string]*group{},
		buckets: map[string][]*group{},
	}
}

// Add folds one posting in: merge into an existing group when any identity
// signal matches, otherwise start a new group. Malformed postings are kept
// as rejected records so the run output accounts for every posting seen.
func (e *Engine) Add(p domain.RawPosting) {
	e.seen++

	title := util.CleanText(p.Title)
	company := util.CleanText(p.Company)
	rawURL := strings.TrimSpace(p.SourceURL)

	if reason := malformedReason(title, company, rawURL); reason != "" {
		e.rejected = append(e.rejected, rejectedRecord(p, title, company, rawURL, reason))
		return
	}

	canon := util.CanonicalURL(rawURL)
	nt := NormalizeTitle(title)
	nc := NormalizeCompany(company)
	hash, hashOK := ContentHash(p.Description)
	pair := nt + "\x1f" + nc

	var g *group
	if !util.TooGeneric(canon) {
		g = e.byURL[canon]
	}
	if g == nil && hashOK {
		g = e.byHash[hash]
	}
	if g == nil {
		g = e.byPair[pair]
	}
	if g == nil {
		g = e.fuzzyMatch(nt, nc)
	}

	if g != nil {
		e.merge(g, p, canon)
	} else {
		g = e.newGroup(p, title, company, canon, nt, nc)
	}

	// Register this posting's keys as aliases of the group so later
	// variants land in the same place.
	if !util.TooGeneric(canon) {
		e.byURL[canon] = g
	}
	if hashOK {
		e.byHash[hash] = g
	}
	if _, ok := e.byPair[pair]; !ok {
		e.byPair[pair] = g
	}
}

func malformedReason(title, company, url string) string {
	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if company == "" {
		missing = append(missing, "company")
	}
	if url == "" {
		missing = append(missing, "url")
	}
	if len(missing) == 0 {
		return ""
	}
	return "malformed posting: missing " + strings.Join(missing, ", ")
}

func rejectedRecord(p domain.RawPosting, title, company, rawURL, reason string) domain.JobRecord {
	rec := domain.JobRecord{
		DedupGroupID:     uuid.NewString(),
		Title:            title,
		Company:          company,
		Location:         util.NormalizeLocation(p.Location),
		Description:      p.Description,
		URL:              rawURL,
		WorkMode:         p.WorkMode,
		ScrapedAt:        p.ScrapedAt,
		PostedAt:         p.PostedAt,
		Stage1Experience: domain.ExperienceUnknown,
	}
	if p.SourceID != "" {
		rec.Sources = []string{p.SourceID}
	}
	rec.Reject(reason)
	return rec
}

func (e *Engine) fuzzyMatch(nt, nc string) *group {
	if nc == "" {
		return nil
	}
	var best *group
	bestScore := 0.0
	for _, g := range e.buckets[bucketKey(nc)] {
		cs := CompanySimilarity(nc, g.normCompany)
		if cs < e.cfg.CompanyThreshold {
			continue
		}
		ts := TitleSimilarity(nt, g.normTitle)
		if ts < e.cfg.TitleThreshold {
			continue
		}
		if s := ts + cs; s > bestScore {
			bestScore, best = s, g
		}
	}
	return best
}

func (e *Engine) newGroup(p domain.RawPosting, title, company, canon, nt, nc string) *group {
	rec := &domain.JobRecord{
		DedupGroupID: uuid.NewString(),
		Title:        title,
		Company:      company,
		Location:     util.NormalizeLocation(p.Location),
		Description:  p.Description,
		URL:          canon,
		WorkMode:     p.WorkMode,
		Sources:      []string{p.SourceID},
		SourceURLs:   []string{canon},
		PostedAt:     p.PostedAt,
		ScrapedAt:    p.ScrapedAt,
	}
	if rec.WorkMode == "" {
		rec.WorkMode = util.InferWorkMode(rec.Location, rec.Title, rec.Description)
	}

	g := &group{
		rec:         rec,
		normTitle:   nt,
		normCompany: nc,
		urlSeen:     map[string]bool{canon: true},
		srcSeen:     map[string]bool{p.SourceID: true},
	}
	e.order = append(e.order, g)
	e.buckets[bucketKey(nc)] = append(e.buckets[bucketKey(nc)], g)
	return g
}

func (e *Engine) merge(g *group, p domain.RawPosting, canon string) {
	e.merged++
	rec := g.rec

	// The richer description wins; everything else fills gaps only.
	if len(p.Description) > len(rec.Description) {
		rec.Description = p.Description
	}
	if rec.Location == "" {
		rec.Location = util.NormalizeLocation(p.Location)
	}
	if (rec.WorkMode == "" || rec.WorkMode == "Unknown") && p.WorkMode != "" {
		rec.WorkMode = p.WorkMode
	}
	if p.PostedAt != nil && (rec.PostedAt == nil || p.PostedAt.Before(*rec.PostedAt)) {
		rec.PostedAt = p.PostedAt
	}
	if !p.ScrapedAt.IsZero() && (rec.ScrapedAt.IsZero() || p.ScrapedAt.Before(rec.ScrapedAt)) {
		rec.ScrapedAt = p.ScrapedAt
	}

	if p.SourceID != "" && !g.srcSeen[p.SourceID] {
		g.srcSeen[p.SourceID] = true
		rec.Sources = append(rec.Sources, p.SourceID)
	}
	if canon != "" && !g.urlSeen[canon] {
		g.urlSeen[canon] = true
		rec.SourceURLs = append(rec.SourceURLs, canon)
	}
	if util.TooGeneric(rec.URL) && !util.TooGeneric(canon) {
		rec.URL = canon
	}
}

// Records returns every group's merged record, in first-seen order, followed
// by the rejected malformed ones.
func (e *Engine) Records() []domain.JobRecord {
	out := make([]domain.JobRecord, 0, len(e.order)+len(e.rejected))
	for _, g := range e.order {
		out = append(out, *g.rec)
	}
	out = append(out, e.rejected...)
	return out
}

func (e *Engine) Stats() Stats {
	return Stats{
		Seen:      e.seen,
		Groups:    len(e.order),
		Merged:    e.merged,
		Malformed: len(e.rejected),
	}
}
