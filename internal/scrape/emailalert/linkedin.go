package emailalert

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/util"
)

// alertJob is one posting recovered from a LinkedIn job-alert email.
type alertJob struct {
	title    string
	company  string
	location string
	url      string
}

var jobViewRe = regexp.MustCompile(`/jobs/view/(\d+)`)

// badges LinkedIn appends to anchor text that are not part of the title.
var linkedinBadges = []string{"Actively recruiting", "Easy Apply", "Promoted"}

func looksLikeLinkedInAlert(from, subject, htmlBody string) bool {
	if strings.Contains(strings.ToLower(from), "jobalerts-noreply") {
		return true
	}
	s := strings.ToLower(subject)
	if !strings.Contains(s, "job alert") && !strings.Contains(s, "linkedin") {
		return false
	}
	// subject alone false-positives on newsletters; require job links
	return strings.Contains(strings.ToLower(htmlBody), "linkedin.com") &&
		jobViewRe.MatchString(htmlBody)
}

// parseLinkedInAlert walks every anchor in the alert. One job card holds
// several anchors for the same /jobs/view/<id> (logo, title, button);
// merging by job id keeps the card's best title instead of whichever
// anchor happened to come first.
func parseLinkedInAlert(htmlBody string) ([]alertJob, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, err
	}

	byID := map[string]*alertJob{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := unwrapRedirect(strings.TrimSpace(a.AttrOr("href", "")))
		if !strings.Contains(strings.ToLower(href), "linkedin.com") || !jobViewRe.MatchString(href) {
			return
		}

		key := href
		if m := jobViewRe.FindStringSubmatch(href); m != nil {
			key = m[1]
		}
		j, ok := byID[key]
		if !ok {
			j = &alertJob{url: href}
			byID[key] = j
			order = append(order, key)
		}

		if t := scrubBadges(util.CleanText(a.Text())); titleScore(t) > titleScore(j.title) {
			j.title = t
		}

		// The card's "Company · Location" line lives in a <p> near the
		// anchor, one table (or row) up in LinkedIn's email markup.
		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Closest("tr")
		}
		if card.Length() == 0 {
			card = a.Parent()
		}
		card.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := util.CleanText(p.Text())
			if t == "" {
				return
			}
			if j.company == "" && strings.Contains(t, " · ") {
				parts := strings.SplitN(t, " · ", 2)
				j.company = strings.TrimSpace(parts[0])
				j.location = strings.TrimSpace(parts[1])
				return
			}
			if t2 := scrubBadges(t); !strings.Contains(t2, " · ") && titleScore(t2) > titleScore(j.title) {
				j.title = t2
			}
		})
	})

	out := make([]alertJob, 0, len(byID))
	for _, key := range order {
		j := byID[key]
		if j.url == "" || j.title == "" {
			continue
		}
		out = append(out, *j)
	}
	return out, nil
}

// unwrapRedirect follows the ?url= and google /url?q= wrapper patterns
// alert emails route their links through.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			return uu.String()
		}
	}
	if strings.Contains(strings.ToLower(u.Host), "google.") && strings.HasPrefix(u.Path, "/url") {
		if q := u.Query().Get("q"); q != "" {
			if uu, err := url.Parse(q); err == nil && uu.Host != "" {
				return uu.String()
			}
		}
	}
	return href
}

func scrubBadges(s string) string {
	for _, b := range linkedinBadges {
		s = strings.ReplaceAll(s, b, "")
	}
	return util.CleanText(s)
}

// titleScore ranks candidate title strings; anchors in alert emails mix
// real titles with CTAs, counters and salary lines. Higher is better,
// anything at or below zero is unusable.
func titleScore(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	l := strings.ToLower(s)

	for _, junk := range []string{
		"unsubscribe", "see all jobs", "view job", "sign in", "apply now",
		"applicants", "connections", "alumni", "http://", "https://",
	} {
		if strings.Contains(l, junk) {
			return 0
		}
	}

	score := 1
	n := len([]rune(s))
	if n >= 6 && n <= 90 {
		score += 2
	} else if n < 4 || n > 140 {
		return 0
	}

	for _, w := range []string{
		"engineer", "developer", "analyst", "scientist", "architect",
		"manager", "designer", "consultant", "specialist", "lead", "intern",
	} {
		if strings.Contains(l, w) {
			score += 4
			break
		}
	}

	if strings.ContainsAny(s, "$€£") || strings.Contains(l, "/yr") || strings.Contains(l, "per year") {
		score -= 5
	}
	if strings.HasSuffix(s, ".") || strings.Contains(l, "we are") || strings.Contains(l, "you will") {
		score -= 3
	}
	if score < 0 {
		return 0
	}
	return score
}
