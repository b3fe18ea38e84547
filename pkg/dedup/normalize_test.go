package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTopic(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		want  string
	}{
		{"empty string stays empty", "", ""},
		{"lowercases and strips punctuation", "Barbie's Dream House!", "barby dream house"},
		{"drops single-letter tokens", "a big cat", "big cat"},
		{"order independent by sorting", "Running Shoes", "runn shoe"},
		{"same words different order normalize identically", "shoes running", "runn shoe"},
		{"keeps hyphens", "self-care routine", "routine self-care"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTopic(tt.topic))
		})
	}
}

func TestNormalizeTopicOrderIndependence(t *testing.T) {
	a := NormalizeTopic("vintage denim jackets")
	b := NormalizeTopic("jackets denim vintage")
	assert.Equal(t, a, b)
}

func TestStem(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"cat", "cat"},        // len <= 3, unchanged
		{"running", "runn"},   // "ning" suffix strips the gerund, not the doubled consonant
		{"parties", "party"},  // "ies" -> "y"
		{"happiness", "happi"},
		{"shoes", "shoe"},
		{"tiny", "tiny"}, // no suffix rule matches
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, stem(tt.word))
		})
	}
}

func TestJaccard(t *testing.T) {
	t.Run("both empty is zero, not NaN", func(t *testing.T) {
		assert.Equal(t, float64(0), Jaccard(map[string]struct{}{}, map[string]struct{}{}))
	})

	t.Run("identical sets is one", func(t *testing.T) {
		a := KeywordSet([]string{"cat", "dog"})
		assert.Equal(t, float64(1), Jaccard(a, a))
	})

	t.Run("disjoint sets is zero", func(t *testing.T) {
		a := KeywordSet([]string{"cat"})
		b := KeywordSet([]string{"robot"})
		assert.Equal(t, float64(0), Jaccard(a, b))
	})

	t.Run("partial overlap", func(t *testing.T) {
		a := KeywordSet([]string{"cat", "dog", "bird"})
		b := KeywordSet([]string{"cat", "dog", "fish"})
		// intersection {cat, dog} = 2, union {cat,dog,bird,fish} = 4
		assert.InDelta(t, 0.5, Jaccard(a, b), 0.0001)
	})
}

func TestKeywordSetIgnoresEmptyEntries(t *testing.T) {
	set := KeywordSet([]string{"cat", "", "dog"})
	assert.Len(t, set, 2)
}
