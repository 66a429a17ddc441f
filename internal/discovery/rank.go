package discovery

import (
	"cmp"
	"slices"

	"aller-discovery/internal/storage"
)

type priceDirection int

const (
	priceAsc priceDirection = iota
	priceDesc
	priceNearMid
)

// pricePolicy orders products by price according to the requested range:
// a max-only range prefers the priciest items under the cap, a min-only range
// the cheapest above the floor, and a closed range the ones nearest its midpoint.
type pricePolicy struct {
	direction priceDirection
	// boundSum is min+max; |2*price - boundSum| is twice the midpoint distance.
	boundSum int64
}

func policyFor(p PriceRange) pricePolicy {
	switch {
	case p.Min != nil && p.Max != nil:
		return pricePolicy{direction: priceNearMid, boundSum: int64(*p.Min) + int64(*p.Max)}
	case p.Max != nil:
		return pricePolicy{direction: priceDesc}
	default:
		return pricePolicy{direction: priceAsc}
	}
}

// storeOrder is the Filter ordering that matches the policy, so a SQL LIMIT
// keeps the same rows the ranker would.
func (p pricePolicy) storeOrder() storage.Order {
	switch p.direction {
	case priceDesc:
		return storage.OrderPriceDesc
	case priceNearMid:
		return storage.OrderPriceNearMid
	default:
		return storage.OrderPriceAsc
	}
}

func (p pricePolicy) compare(a, b int) int {
	switch p.direction {
	case priceDesc:
		return cmp.Compare(b, a)
	case priceNearMid:
		return cmp.Compare(absInt64(2*int64(a)-p.boundSum), absInt64(2*int64(b)-p.boundSum))
	default:
		return cmp.Compare(a, b)
	}
}

// ranker orders products by score (when present), then price with unknown
// prices last, then product ID.
type ranker struct {
	scores map[int64]float32
	price  pricePolicy
}

func (r ranker) compare(a, b storage.ProductRecord) int {
	if r.scores != nil {
		if c := cmp.Compare(r.scores[b.ID], r.scores[a.ID]); c != 0 {
			return c
		}
	}

	switch {
	case a.Price == nil && b.Price != nil:
		return 1
	case a.Price != nil && b.Price == nil:
		return -1
	case a.Price != nil && b.Price != nil:
		if c := r.price.compare(*a.Price, *b.Price); c != 0 {
			return c
		}
	}

	return cmp.Compare(a.ID, b.ID)
}

// rank sorts products in place and truncates to limit when positive.
func (r ranker) rank(products []storage.ProductRecord, limit int) []storage.ProductRecord {
	slices.SortFunc(products, r.compare)
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
