package rank

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
)

var (
	// "3-5 years", "3 – 5 yrs", "2 to 4 years"
	yearsRangeRe = regexp.MustCompile(`(\d{1,2})\s*(?:-|–|—|to)\s*(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`)
	// "5+ years", "2 years"
	yearsRe = regexp.MustCompile(`(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`)
)

// DetectExperience reads the level off the posting text. An explicit year
// requirement wins over title keywords: a "Senior" ad asking for 2+ years
// is an entry-level ad wearing a big hat.
func DetectExperience(title, description string) domain.ExperienceLevel {
	text := strings.ToLower(title + "\n" + description)

	if m := yearsRangeRe.FindStringSubmatch(text); m != nil {
		return levelFromYears(atoi(m[1]))
	}
	if m := yearsRe.FindStringSubmatch(text); m != nil {
		return levelFromYears(atoi(m[1]))
	}

	// Keyword pass over the normalized title only; descriptions mention
	// every level ("work with senior engineers") and mislead.
	lt := " " + normText(title) + " "
	switch {
	case containsAny(lt, " senior ", " sr ", " staff ", " principal ", " lead "):
		return domain.ExperienceSenior
	case containsAny(lt, " junior ", " jr ", " intern ", " internship ", " co op ", " coop ", " entry level ", " graduate ", " new grad "):
		return domain.ExperienceEntry
	case containsAny(lt, " intermediate ", " mid level "):
		return domain.ExperienceMid
	}
	return domain.ExperienceUnknown
}

// levelFromYears maps a minimum-years requirement: 0-2 entry, 3-5 mid,
// 6 and up senior.
func levelFromYears(y int) domain.ExperienceLevel {
	switch {
	case y <= 2:
		return domain.ExperienceEntry
	case y <= 5:
		return domain.ExperienceMid
	default:
		return domain.ExperienceSenior
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
