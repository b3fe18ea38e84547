package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicateEmptyInput(t *testing.T) {
	assert.Nil(t, Deduplicate(nil))
	assert.Nil(t, Deduplicate([]Candidate{}))
}

func TestDeduplicateNoOverlapKeepsSeparate(t *testing.T) {
	candidates := []Candidate{
		{Topic: "vintage denim jackets", Source: "reddit", Keywords: []string{"denim", "jacket", "vintage"}},
		{Topic: "robot vacuum deals", Source: "twitter", Keywords: []string{"robot", "vacuum", "deals"}},
	}
	got := Deduplicate(candidates)
	require.Len(t, got, 2)
}

func TestDeduplicateMergesSimilarCandidates(t *testing.T) {
	candidates := []Candidate{
		{Topic: "barbie dream house", Source: "reddit", Keywords: []string{"barbie", "dream", "house", "pink", "doll"}, ScoreHint: 0.5},
		{Topic: "barbie's dream house toy", Source: "twitter", Keywords: []string{"barbie", "dream", "house", "pink", "toy"}, ScoreHint: 0.9},
	}
	got := Deduplicate(candidates)
	require.Len(t, got, 1)

	merged := got[0]
	assert.Equal(t, "barbie's dream house toy", merged.Topic, "higher score_hint's topic wins")
	assert.ElementsMatch(t, []string{"reddit", "twitter"}, merged.Sources)
	assert.Contains(t, merged.Keywords, "pink")
	assert.Contains(t, merged.Keywords, "toy")
	assert.Contains(t, merged.Keywords, "doll")
}

func TestDeduplicateThresholdIsStrict(t *testing.T) {
	// Jaccard of {a,b,c,d} vs {a,b,c,e} is 3/5 = 0.6, exactly the threshold;
	// the strict > comparison does not merge it.
	candidates := []Candidate{
		{Topic: "first", Source: "reddit", Keywords: []string{"a", "b", "c", "d"}},
		{Topic: "second", Source: "twitter", Keywords: []string{"a", "b", "c", "e"}},
	}
	got := Deduplicate(candidates)
	assert.Len(t, got, 2)
}

func TestDeduplicateTransitiveChainMergesIntoOne(t *testing.T) {
	// A merges with B (4/6 overlap), expanding the pool to 6 keywords; C then
	// compares against that expanded pool (5/7 overlap) and folds in too.
	candidates := []Candidate{
		{Topic: "A", Source: "reddit", Keywords: []string{"alpha", "bravo", "charlie", "delta", "echo"}},
		{Topic: "B", Source: "twitter", Keywords: []string{"alpha", "bravo", "charlie", "delta", "foxtrot"}},
		{Topic: "C", Source: "tiktok", Keywords: []string{"alpha", "bravo", "charlie", "delta", "echo", "golf"}},
	}
	got := Deduplicate(candidates)
	require.Len(t, got, 1)
	assert.ElementsMatch(t, []string{"reddit", "twitter", "tiktok"}, got[0].Sources)
}

func TestDeduplicateSetsNormalizedTopic(t *testing.T) {
	candidates := []Candidate{
		{Topic: "Running Shoes", Source: "reddit", Keywords: []string{"running", "shoes"}},
	}
	got := Deduplicate(candidates)
	require.Len(t, got, 1)
	assert.Equal(t, NormalizeTopic("Running Shoes"), got[0].NormalizedTopic)
}

func TestDeduplicateEmptySourceIsNotAddedToSourceSet(t *testing.T) {
	candidates := []Candidate{
		{Topic: "A", Source: "reddit", Keywords: []string{"alpha", "bravo", "charlie", "delta", "echo"}},
		{Topic: "B", Source: "", Keywords: []string{"alpha", "bravo", "charlie", "delta", "foxtrot"}},
	}
	got := Deduplicate(candidates)
	require.Len(t, got, 1)
	assert.ElementsMatch(t, []string{"reddit"}, got[0].Sources)
}
