package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCompany(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Acme Inc.", "acme"},
		{"Acme Incorporated", "acme"},
		{"ACME CORP", "acme"},
		{"The Acme Company", "acme"},
		{"Acme Co. Ltd.", "acme"},
		{"Johnson & Johnson", "johnson and johnson"},
		{"Montréal Analytics", "montreal analytics"},
		{"Shopify", "shopify"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeCompany(c.in), "input %q", c.in)
	}
}

func TestNormalizeCompanyNeverEmptiesRealNames(t *testing.T) {
	// A company literally named after a suffix keeps its last token.
	assert.Equal(t, "inc", NormalizeCompany("Inc."))
	assert.Equal(t, "ltd", NormalizeCompany("Ltd"))
}

func TestNormalizeTitle(t *testing.T) {
	a := NormalizeTitle("Senior Data Engineer – Remote")
	b := NormalizeTitle("Senior Data Engineer (Remote)")
	assert.Equal(t, a, b)
	assert.Equal(t, "senior data engineer remote", a)

	assert.Equal(t, "c++ developer", NormalizeTitle("C++ Developer"))
	assert.Equal(t, "c# engineer", NormalizeTitle("C# Engineer!!"))
}

func TestContentHash(t *testing.T) {
	long := "We are looking for a data engineer to build and operate batch and streaming pipelines on our analytics platform."
	h1, ok := ContentHash(long)
	assert.True(t, ok)
	h2, ok2 := ContentHash("  " + long + "\n")
	assert.True(t, ok2)
	assert.Equal(t, h1, h2, "whitespace variants hash the same")

	_, ok = ContentHash("Great job!")
	assert.False(t, ok, "short text is not identifying")
}

func TestTokenJaccard(t *testing.T) {
	assert.Equal(t, 1.0, TokenJaccard("data engineer", "engineer data"))
	assert.InDelta(t, 0.5, TokenJaccard("data engineer", "data scientist engineer analyst"), 1e-9)
	assert.Equal(t, 0.0, TokenJaccard("alpha", "beta"))
}

func TestJaroWinklerClassicPairs(t *testing.T) {
	assert.InDelta(t, 0.961, JaroWinkler("martha", "marhta"), 0.005)
	assert.InDelta(t, 0.840, JaroWinkler("dwayne", "duane"), 0.005)
	assert.Equal(t, 1.0, JaroWinkler("acme", "acme"))
	assert.Equal(t, 0.0, JaroWinkler("", "acme"))
}

func TestTitleSimilarityReorderIsFullMatch(t *testing.T) {
	assert.Equal(t, 1.0, TitleSimilarity("senior data engineer", "data engineer senior"))
}

func TestCompanySimilarityAfterNormalization(t *testing.T) {
	a := NormalizeCompany("Acme Inc.")
	b := NormalizeCompany("Acme Incorporated")
	assert.Equal(t, 1.0, CompanySimilarity(a, b))
}

func TestBucketKey(t *testing.T) {
	assert.Equal(t, "acme", bucketKey("acme labs"))
	assert.Equal(t, "shopify", bucketKey("shopify"))
}
