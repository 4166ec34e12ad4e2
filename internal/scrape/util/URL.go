package util

import (
	"net/url"
	"sort"
	"strings"
)

// CanonicalURL normalizes a posting URL so the same job reached through
// different tracking links maps to one identity key.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" ||
			lk == "gh_src" || lk == "lever-origin" || lk == "lever-source" ||
			lk == "ref" || lk == "refid" || lk == "trk" {
			q.Del(k)
		}
	}

	if strings.Contains(u.Host, "linkedin.com") {
		keep := url.Values{}
		if v := q.Get("currentJobId"); v != "" {
			keep.Set("currentJobId", v)
		}
		q = keep
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return strings.TrimSuffix(u.String(), "/")
}

// TooGeneric reports URLs that point at listing or alert hubs rather than a
// single posting; they make useless identity keys.
func TooGeneric(u string) bool {
	lu := strings.ToLower(strings.TrimSuffix(u, "/"))

	if strings.Contains(lu, "linkedin.com/comm/jobs/alerts") ||
		strings.Contains(lu, "linkedin.com/jobs/search") {
		return true
	}
	if strings.HasSuffix(lu, "/jobs") || strings.HasSuffix(lu, "/careers") {
		return true
	}
	return false
}
