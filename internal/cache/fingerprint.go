package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint keys a stage-2 result by what actually went into it: the
// posting text and the profile's skills fingerprint. Case and whitespace
// are folded so a re-scrape of the same ad hits the cache; any change to
// the profile's skills rotates every key.
func Fingerprint(description, skillsVersion string) string {
	n := strings.ToLower(strings.Join(strings.Fields(description), " "))
	sum := sha256.Sum256([]byte(n + "\x1f" + skillsVersion))
	return hex.EncodeToString(sum[:])
}
