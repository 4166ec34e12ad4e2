package dedup

import "strings"

// TokenJaccard is set overlap of whitespace-delimited tokens. Order and
// repetition do not matter.
func TokenJaccard(a, b string) float64 {
	as := tokenSet(a)
	bs := tokenSet(b)
	if len(as) == 0 && len(bs) == 0 {
		return 1
	}
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}

	inter := 0
	for t := range as {
		if bs[t] {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, t := range strings.Fields(s) {
		out[t] = true
	}
	return out
}

// JaroWinkler on runes, with the standard 0.1 prefix scale capped at four
// characters.
func JaroWinkler(a, b string) float64 {
	j := jaro([]rune(a), []rune(b))
	if j == 0 {
		return 0
	}

	prefix := 0
	ar, br := []rune(a), []rune(b)
	for prefix < len(ar) && prefix < len(br) && prefix < 4 && ar[prefix] == br[prefix] {
		prefix++
	}
	return j + float64(prefix)*0.1*(1-j)
}

func jaro(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	window := max(len(a), len(b))/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, len(a))
	bMatched := make([]bool, len(b))
	matches := 0
	for i, ra := range a {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > len(b) {
			hi = len(b)
		}
		for j := lo; j < hi; j++ {
			if bMatched[j] || b[j] != ra {
				continue
			}
			aMatched[i] = true
			bMatched[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	// transpositions: matched characters out of order, counted pairwise
	transpositions := 0
	j := 0
	for i := range a {
		if !aMatched[i] {
			continue
		}
		for !bMatched[j] {
			j++
		}
		if a[i] != b[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}

// TitleSimilarity blends token overlap with string distance. Identical
// token sets count as a full match so reordered titles merge.
func TitleSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ja := TokenJaccard(a, b)
	if ja == 1 {
		return 1
	}
	return 0.6*ja + 0.4*JaroWinkler(a, b)
}

// CompanySimilarity weights string distance evenly with token overlap;
// employer names are short, and most variation is already removed by
// NormalizeCompany.
func CompanySimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ja := TokenJaccard(a, b)
	if ja == 1 {
		return 1
	}
	return 0.5*ja + 0.5*JaroWinkler(a, b)
}
