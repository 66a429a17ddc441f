package storage

// Brand represents a cosmetics brand.
type Brand struct {
	ID   int64
	Name string
}

// Ingredient represents a cosmetic ingredient.
type Ingredient struct {
	ID           int64
	Name         string
	CautionGrade *string // nil when the ingredient has no grade
}

// ProductRecord is a product row joined with its brand and ingredient list.
type ProductRecord struct {
	ID          int64
	BrandID     int64
	Brand       string
	Name        string
	Price       *int // nil when the price is unknown
	Category    string
	ReviewCount int
	FeatureText string
	ImageURL    string
	ProductURL  string
	Ingredients []Ingredient // in label order
}

// Order selects the ordering applied by ProductRepo.Filter.
type Order int

const (
	// OrderDefault orders by review count when no price bound is set,
	// otherwise by ascending price with unknown prices last.
	OrderDefault Order = iota
	// OrderPriceAsc orders by ascending price, unknown prices last.
	OrderPriceAsc
	// OrderPriceDesc orders by descending price, unknown prices last.
	OrderPriceDesc
	// OrderPriceNearMid orders by distance from the midpoint of the price
	// range, unknown prices last. Requires both bounds.
	OrderPriceNearMid
)

// ProductFilter describes a conjunctive relational query over products.
// Nil or empty fields do not constrain the result.
type ProductFilter struct {
	BrandID       *int64
	ProductID     *int64
	Category      *string
	MinPrice      *int // inclusive
	MaxPrice      *int // inclusive
	IngredientIDs []int64
	// CandidateIDs restricts results to these product IDs when Restrict is set.
	// Restrict with an empty list matches nothing.
	CandidateIDs []int64
	Restrict     bool
	Order        Order
	Limit        int
}

// HasPriceBound reports whether either price bound is set.
func (f ProductFilter) HasPriceBound() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}
