// Package dedup implements trend deduplication: normalized-topic
// computation, a closed suffix-stripping stemmer, Jaccard-similarity
// merging, and store reconciliation.
package dedup

import (
	"sort"
	"strings"
)

// suffixRules is the closed, ordered suffix table: longer/more specific
// suffixes are checked first so e.g. "running" strips to "runn" via "ning"
// rather than falling through to the bare "ing" rule.
var suffixRules = []struct {
	suffix      string
	replacement string
}{
	{"ying", "y"}, {"zing", "z"}, {"ting", "t"}, {"ning", "n"},
	{"ring", "r"}, {"ling", "l"}, {"ding", "d"}, {"bing", "b"},
	{"ging", "g"}, {"ping", "p"}, {"ming", "m"}, {"king", "k"},
	{"sing", "s"}, {"ing", ""}, {"ies", "y"}, {"ness", ""},
	{"ment", ""}, {"tion", ""}, {"sion", ""}, {"able", ""},
	{"ible", ""}, {"ful", ""}, {"less", ""}, {"ous", ""},
	{"ive", ""}, {"ed", ""}, {"er", ""}, {"est", ""},
	{"ly", ""}, {"s", ""},
}

// stem applies the suffix table to a single lowercased word. Words of
// length <= 3 are returned unchanged, and a rule only applies if the
// residue (word minus suffix, plus replacement) is still length >= 3.
func stem(word string) string {
	if len(word) <= 3 {
		return word
	}
	for _, rule := range suffixRules {
		if strings.HasSuffix(word, rule.suffix) {
			residueLen := len(word) - len(rule.suffix) + len(rule.replacement)
			if residueLen >= 3 {
				return word[:len(word)-len(rule.suffix)] + rule.replacement
			}
		}
	}
	return word
}

// isAlnumSpaceHyphen reports whether r should survive the non-alphanumeric
// strip step (keeps spaces and hyphens).
func isAlnumSpaceHyphen(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ' || r == '-':
		return true
	default:
		return false
	}
}

// NormalizeTopic computes the dedup key for a raw topic string: lowercase,
// strip non-alphanumeric (keeping spaces/hyphens), stem each word, drop
// tokens of length <= 1, sort alphabetically, and rejoin with single
// spaces. Order-independent by construction.
func NormalizeTopic(topic string) string {
	if topic == "" {
		return ""
	}

	lowered := strings.ToLower(topic)
	var b strings.Builder
	for _, r := range lowered {
		if isAlnumSpaceHyphen(r) {
			b.WriteRune(r)
		}
	}

	fields := strings.Fields(b.String())
	words := make([]string, 0, len(fields))
	for _, w := range fields {
		if len(w) <= 1 {
			continue
		}
		words = append(words, stem(w))
	}

	sort.Strings(words)
	return strings.Join(words, " ")
}

// KeywordSet builds a stemmed, lowercased keyword set for Jaccard comparison.
func KeywordSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		if k == "" {
			continue
		}
		set[stem(strings.ToLower(k))] = struct{}{}
	}
	return set
}

// Jaccard computes |A∩B| / |A∪B|. Empty vs empty is defined as 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
