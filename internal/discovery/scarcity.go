package discovery

// IsScarce reports whether q carries too little signal to search: no feature
// phrases and no brand, product, category, ingredient or price constraint.
func IsScarce(q ParsedQuery) bool {
	if len(nonBlank(q.Features)) > 0 {
		return false
	}
	if _, ok := present(q.Brand); ok {
		return false
	}
	if _, ok := present(q.Product); ok {
		return false
	}
	if _, ok := present(q.Category); ok {
		return false
	}
	if len(nonBlank(q.Ingredients)) > 0 {
		return false
	}
	return !q.Price.HasBound()
}
