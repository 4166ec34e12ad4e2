package rank

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/profile"
)

// Outcome is the stage-1 verdict for one record. RejectReason is set when
// an exclusion or location rule fired; the score is meaningless then.
type Outcome struct {
	Score        float64
	Skills       []string
	Experience   domain.ExperienceLevel
	RejectReason string
}

// Weights control the blend of stage-1 components. Components whose
// profile input is empty are dropped and the rest renormalized, so a
// profile without keywords still scores on skills and experience alone.
type Weights struct {
	Skills     float64
	Keywords   float64
	Experience float64
}

func DefaultWeights() Weights {
	return Weights{Skills: 0.5, Keywords: 0.3, Experience: 0.2}
}

func (w Weights) valid() bool {
	return w.Skills > 0 && w.Keywords > 0 && w.Experience > 0
}

// Scorer is the deterministic rule-based pass. No network, no model: the
// same record and profile always produce the same outcome.
type Scorer struct {
	prof    *profile.CandidateProfile
	weights Weights
}

func NewScorer(p *profile.CandidateProfile, w Weights) *Scorer {
	if !w.valid() {
		w = DefaultWeights()
	}
	return &Scorer{prof: p, weights: w}
}

func (s *Scorer) Score(rec *domain.JobRecord) Outcome {
	normAll := normText(rec.Title + "\n" + rec.Description)
	tokens := tokenSetOf(normAll)

	// Exclusions fire before anything else; a strong skill match never
	// rescues an excluded posting.
	for _, kw := range s.prof.ExcludeKeywords {
		if matchTerm(normAll, tokens, kw) {
			return Outcome{
				Experience:   domain.ExperienceUnknown,
				RejectReason: fmt.Sprintf("exclusion keyword %q matched", kw),
			}
		}
	}
	if reason := s.locationReject(rec); reason != "" {
		return Outcome{Experience: domain.ExperienceUnknown, RejectReason: reason}
	}

	exp := DetectExperience(rec.Title, rec.Description)

	var matched []string
	for _, sk := range s.prof.Skills {
		if matchTerm(normAll, tokens, sk) {
			matched = append(matched, sk)
		}
	}
	skillsVal := 0.0
	if len(s.prof.Skills) > 0 {
		skillsVal = float64(len(matched)) / float64(len(s.prof.Skills))
	}

	kwMatched := 0
	for _, kw := range s.prof.Keywords {
		if matchTerm(normAll, tokens, kw) {
			kwMatched++
		}
	}

	type comp struct{ v, w float64 }
	comps := []comp{{skillsVal, s.weights.Skills}}
	if len(s.prof.Keywords) > 0 {
		comps = append(comps, comp{float64(kwMatched) / float64(len(s.prof.Keywords)), s.weights.Keywords})
	}
	comps = append(comps, comp{experienceFit(domain.ExperienceLevel(s.prof.ExperienceLevel), exp), s.weights.Experience})

	num, den := 0.0, 0.0
	for _, c := range comps {
		num += c.v * c.w
		den += c.w
	}

	return Outcome{
		Score:      num / den,
		Skills:     uniq(matched),
		Experience: exp,
	}
}

func (s *Scorer) locationReject(rec *domain.JobRecord) string {
	loc := strings.ToLower(rec.Location)
	for _, b := range s.prof.LocationsBlock {
		b = strings.TrimSpace(b)
		if b != "" && strings.Contains(loc, strings.ToLower(b)) {
			return fmt.Sprintf("blocked location %q", b)
		}
	}
	if len(s.prof.LocationsAllow) == 0 {
		return ""
	}
	if s.prof.RemoteOK && strings.EqualFold(rec.WorkMode, "Remote") {
		return ""
	}
	if loc == "" {
		// No location on the posting: keep it rather than guess wrong.
		return ""
	}
	for _, a := range s.prof.LocationsAllow {
		a = strings.TrimSpace(a)
		if a != "" && strings.Contains(loc, strings.ToLower(a)) {
			return ""
		}
	}
	return "location outside allow list"
}

// experienceFit maps the (candidate, posting) level pair to [0,1]. Unknown
// posting levels score slightly above neutral; most ads never state one.
func experienceFit(candidate, posting domain.ExperienceLevel) float64 {
	if posting == domain.ExperienceUnknown || posting == "" {
		return 0.6
	}
	ci, ok1 := levelIndex(candidate)
	pi, ok2 := levelIndex(posting)
	if !ok1 || !ok2 {
		return 0.6
	}
	switch d := ci - pi; {
	case d == 0:
		return 1.0
	case d == 1 || d == -1:
		return 0.5
	default:
		return 0.15
	}
}

func levelIndex(l domain.ExperienceLevel) (int, bool) {
	switch l {
	case domain.ExperienceEntry:
		return 0, true
	case domain.ExperienceMid:
		return 1, true
	case domain.ExperienceSenior:
		return 2, true
	}
	return 0, false
}

// normText lowercases and flattens punctuation while keeping the symbols
// that make "c++", "c#" and "node.js" distinct skills.
func normText(s string) string {
	return strings.Join(tokenize(s), " ")
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' || r == '#' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	var out []string
	for _, f := range strings.Fields(b.String()) {
		f = strings.Trim(f, ".")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func tokenSetOf(normed string) map[string]bool {
	set := map[string]bool{}
	for _, t := range strings.Fields(normed) {
		set[t] = true
	}
	return set
}

// matchTerm finds a profile term in the posting text. Single tokens use
// exact token lookup ("go" never matches "going"); phrases match on token
// boundaries inside the normalized text.
func matchTerm(normed string, tokens map[string]bool, term string) bool {
	nt := normText(term)
	if nt == "" {
		return false
	}
	if !strings.Contains(nt, " ") {
		return tokens[nt]
	}
	return strings.Contains(" "+normed+" ", " "+nt+" ")
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
