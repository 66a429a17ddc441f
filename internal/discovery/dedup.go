package discovery

import (
	"cmp"
	"slices"
)

// CandidateSet maps product IDs to their best feature score and keeps the
// IDs ordered by descending score, then ascending ID.
type CandidateSet struct {
	scores map[int64]float32
	ids    []int64
}

// Dedupe collapses repeated hits for a product, keeping the highest score.
func Dedupe(candidates []Candidate) CandidateSet {
	scores := make(map[int64]float32, len(candidates))
	for _, c := range candidates {
		if best, ok := scores[c.ProductID]; !ok || c.Score > best {
			scores[c.ProductID] = c.Score
		}
	}

	ids := make([]int64, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b int64) int {
		if c := cmp.Compare(scores[b], scores[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	return CandidateSet{scores: scores, ids: ids}
}

// Len returns the number of distinct products.
func (s CandidateSet) Len() int {
	return len(s.ids)
}

// IDs returns product IDs best first.
func (s CandidateSet) IDs() []int64 {
	return slices.Clone(s.ids)
}

// Top returns at most n product IDs, best first.
func (s CandidateSet) Top(n int) []int64 {
	if n < 0 || n > len(s.ids) {
		n = len(s.ids)
	}
	return slices.Clone(s.ids[:n])
}

// Score returns the best score for a product.
func (s CandidateSet) Score(id int64) (float32, bool) {
	v, ok := s.scores[id]
	return v, ok
}

// Scores returns a copy of the product-to-score map.
func (s CandidateSet) Scores() map[int64]float32 {
	out := make(map[int64]float32, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out
}
