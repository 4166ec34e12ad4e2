package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minHashableDesc guards the content-hash signal: descriptions shorter than
// this are too boilerplate to identify a posting on their own.
const minHashableDesc = 64

var foldTransform = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldDiacritics maps accented characters to their base form so
// "Montréal" and "Montreal" compare equal.
func foldDiacritics(s string) string {
	out, _, err := transform.String(foldTransform, s)
	if err != nil {
		return s
	}
	return out
}

// corpSuffixes are legal-entity tails that vary between postings of the
// same employer ("Acme Inc." vs "Acme Incorporated").
var corpSuffixes = map[string]bool{
	"inc": true, "incorporated": true,
	"llc": true, "llp": true,
	"ltd": true, "limited": true,
	"corp": true, "corporation": true,
	"co": true, "company": true,
	"gmbh": true, "plc": true, "pllc": true,
	"sa": true, "ag": true, "bv": true, "nv": true,
	"pty": true, "ulc": true, "srl": true, "sarl": true,
	"ab": true, "oy": true, "as": true,
}

func normalizeText(s string, keepSymbols string) string {
	s = foldDiacritics(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case strings.ContainsRune(keepSymbols, r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeTitle lowercases, folds diacritics and flattens punctuation so
// "Senior Data Engineer – Remote" and "Senior Data Engineer (Remote)"
// produce the same key. '+' and '#' survive: "c++" and "c#" are real
// title tokens, not noise.
func NormalizeTitle(s string) string {
	return normalizeText(s, "+#")
}

// NormalizeCompany is NormalizeTitle plus employer-specific cleanup:
// "&" unifies with "and", leading articles and trailing legal suffixes
// get dropped.
func NormalizeCompany(s string) string {
	s = strings.ReplaceAll(s, "&", " and ")
	s = normalizeText(s, "")
	if s == "" {
		return ""
	}

	toks := strings.Fields(s)
	for len(toks) > 1 && toks[0] == "the" {
		toks = toks[1:]
	}
	for len(toks) > 1 && corpSuffixes[toks[len(toks)-1]] {
		toks = toks[:len(toks)-1]
	}
	return strings.Join(toks, " ")
}

// ContentHash hashes the normalized description. ok is false when the text
// is too short to distinguish one posting from another.
func ContentHash(desc string) (string, bool) {
	n := normalizeText(desc, "+#")
	if len(n) < minHashableDesc {
		return "", false
	}
	sum := sha256.Sum256([]byte(n))
	return hex.EncodeToString(sum[:]), true
}

// bucketKey groups candidate employers for fuzzy comparison; the first
// token is stable across suffix and punctuation variants.
func bucketKey(normCompany string) string {
	if i := strings.IndexByte(normCompany, ' '); i >= 0 {
		return normCompany[:i]
	}
	return normCompany
}
