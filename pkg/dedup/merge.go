package dedup

// similarityThreshold is strict: exactly 0.6 does not merge.
const similarityThreshold = 0.6

// Candidate is a single cross-source trend discovery before deduplication.
type Candidate struct {
	Topic      string
	Source     string
	Keywords   []string
	ScoreHint  float64
	SourceData map[string]any
}

// Canonical is the merged result of one or more Candidates.
type Canonical struct {
	Topic           string
	NormalizedTopic string
	Sources         []string
	Keywords        []string
	SourceData      map[string]any
}

// Deduplicate merges candidates whose keyword-set Jaccard similarity
// exceeds the strict threshold. Candidates are walked in input order:
// each unmerged candidate opens a new canonical entry, and any later
// candidate merging into it unions its source tag and keywords while
// keeping the higher score_hint's topic string and source data.
func Deduplicate(candidates []Candidate) []Canonical {
	if len(candidates) == 0 {
		return nil
	}

	merged := make([]bool, len(candidates))
	var canonical []Canonical

	for i := range candidates {
		if merged[i] {
			continue
		}

		topic := candidates[i].Topic
		scoreHint := candidates[i].ScoreHint
		sourceData := candidates[i].SourceData
		sourceSet := map[string]struct{}{candidates[i].Source: {}}
		keywordPool := map[string]struct{}{}
		for k := range KeywordSet(candidates[i].Keywords) {
			keywordPool[k] = struct{}{}
		}

		for j := i + 1; j < len(candidates); j++ {
			if merged[j] {
				continue
			}

			setA := keywordPool
			setB := KeywordSet(candidates[j].Keywords)
			if Jaccard(setA, setB) > similarityThreshold {
				merged[j] = true
				if candidates[j].Source != "" {
					sourceSet[candidates[j].Source] = struct{}{}
				}
				for k := range setB {
					keywordPool[k] = struct{}{}
				}
				if candidates[j].ScoreHint > scoreHint {
					topic = candidates[j].Topic
					scoreHint = candidates[j].ScoreHint
					sourceData = candidates[j].SourceData
				}
			}
		}

		sources := make([]string, 0, len(sourceSet))
		for s := range sourceSet {
			sources = append(sources, s)
		}
		keywords := make([]string, 0, len(keywordPool))
		for k := range keywordPool {
			keywords = append(keywords, k)
		}

		canonical = append(canonical, Canonical{
			Topic:           topic,
			NormalizedTopic: NormalizeTopic(topic),
			Sources:         sources,
			Keywords:        keywords,
			SourceData:      sourceData,
		})
	}

	return canonical
}
