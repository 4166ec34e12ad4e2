package util

import "strings"

// CleanText collapses whitespace (incl. non-breaking spaces) to single
// spaces. Scraped fragments arrive full of layout junk.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// NormalizeLocation tidies a scraped location string: strips label
// prefixes, dedupes comma-separated parts.
func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	if loc == "" {
		return ""
	}

	loc = strings.TrimPrefix(loc, "Location:")
	loc = strings.TrimPrefix(loc, "LOCATIONS:")
	loc = strings.TrimSpace(loc)

	parts := strings.Split(loc, ",")
	seen := map[string]bool{}
	var out []string
	for _, p := range parts {
		p = CleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// InferWorkMode guesses the work mode from whatever text the source gave us.
func InferWorkMode(location, title, desc string) string {
	blob := strings.ToLower(strings.Join([]string{location, title, desc}, " "))

	switch {
	case strings.Contains(blob, "remote"):
		return "Remote"
	case strings.Contains(blob, "hybrid"):
		return "Hybrid"
	case strings.Contains(blob, "on-site") || strings.Contains(blob, "onsite") || strings.Contains(blob, "on site"):
		return "Onsite"
	default:
		return "Unknown"
	}
}
