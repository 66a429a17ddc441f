package discovery

import (
	"strings"

	"aller-discovery/internal/storage"
)

// PriceRange is an inclusive price interval in won. A nil bound is absent;
// a zero bound is a real bound.
type PriceRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// HasBound reports whether either bound is set.
func (p PriceRange) HasBound() bool {
	return p.Min != nil || p.Max != nil
}

// ParsedQuery is the structured form of a user query. A mention is present
// when it is non-nil and not blank.
type ParsedQuery struct {
	Brand       *string    `json:"brand,omitempty"`
	Product     *string    `json:"product,omitempty"`
	Ingredients []string   `json:"ingredients,omitempty"`
	Features    []string   `json:"features,omitempty"`
	Price       PriceRange `json:"price"`
	Category    *string    `json:"category,omitempty"`
}

// ResolvedQuery holds catalog identifiers resolved from a ParsedQuery.
type ResolvedQuery struct {
	BrandID       *int64     `json:"brand_id,omitempty"`
	ProductID     *int64     `json:"product_id,omitempty"`
	IngredientIDs []int64    `json:"ingredient_ids,omitempty"`
	Category      *string    `json:"category,omitempty"`
	Price         PriceRange `json:"price"`
}

// HasHardFilter reports whether any relational constraint is present.
func (r ResolvedQuery) HasHardFilter() bool {
	return r.BrandID != nil || r.ProductID != nil || r.Category != nil ||
		len(r.IngredientIDs) > 0 || r.Price.HasBound()
}

// Candidate is a single nearest-neighbour hit from the feature index.
type Candidate struct {
	ProductID int64
	Score     float32
}

// Outcome classifies a search result.
type Outcome string

const (
	// OutcomeRanked means products were found.
	OutcomeRanked Outcome = "ranked"
	// OutcomeScarce means the query carried too little signal to search.
	OutcomeScarce Outcome = "scarce"
	// OutcomeNoMatch means the constraints matched no product.
	OutcomeNoMatch Outcome = "no_match"
)

// Messages returned instead of products.
const (
	GuidanceMessage = "조금만 더 구체적으로 말씀해 주세요. 예) ‘브랜드: 라네즈, 나이아신아마이드 포함’ / ‘선크림, 2만원대, 끈적임 없음’"
	NoMatchMessage  = "조건에 맞는 제품을 찾지 못했어요. 브랜드, 성분, 가격 조건을 조금 완화해 보세요."
)

// Request is a single search request.
type Request struct {
	// Query is the raw user text. Used as feature search text when the
	// parsed feature phrases are blank.
	Query  string
	Parsed ParsedQuery
	// Limit caps the number of products. Zero uses the engine default.
	Limit int
}

// Result is the outcome of a search. Message is set only when Products is empty.
type Result struct {
	Products []storage.ProductRecord
	// Scores holds feature similarity per returned product, nil when the
	// feature index was not used.
	Scores   map[int64]float32
	Outcome  Outcome
	Message  string
	Resolved ResolvedQuery
	// Degraded is set when the feature index failed and the result came
	// from relational filtering alone.
	Degraded bool
}

// present returns the trimmed mention and whether it is non-blank.
func present(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	t := strings.TrimSpace(*s)
	return t, t != ""
}

// nonBlank returns the trimmed non-blank entries of ss.
func nonBlank(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
