package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

// IndexStats summarizes one indexing run.
type IndexStats struct {
	Brands      int `json:"brands"`
	Ingredients int `json:"ingredients"`
	Products    int `json:"products"`
	Snippets    int `json:"snippets"`
	// ProductsWithoutSnippets have no feature text and can only be found by
	// relational filters.
	ProductsWithoutSnippets int `json:"products_without_snippets"`
	// PointsFailed counts points whose batch failed to embed or upsert.
	PointsFailed  int         `json:"points_failed"`
	SnippetLength LengthStats `json:"snippet_length"`
	// IndexVersion identifies the splitter rules and embedding model.
	IndexVersion string `json:"index_version"`
}

// LengthStats describes snippet lengths in runes.
type LengthStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// IndexVersion hashes the splitter version, embedding model and size limits.
func IndexVersion(modelName string) string {
	input := fmt.Sprintf("%s|%s|min=%d|max=%d", SplitterVersion, modelName, minSnippetRunes, maxSnippetRunes)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

func snippetLengths(snippets []Snippet) []int {
	lengths := make([]int, len(snippets))
	for i, s := range snippets {
		lengths[i] = utf8.RuneCountInString(s.Text)
	}
	return lengths
}

// computeLengthStats computes min, max, mean and p95 of lengths.
func computeLengthStats(lengths []int) LengthStats {
	if len(lengths) == 0 {
		return LengthStats{}
	}

	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, n := range sorted {
		sum += n
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return LengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
