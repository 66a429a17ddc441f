package indexer

// Snippet is one embeddable piece of a product's feature text.
type Snippet struct {
	Index   int    // Position within the product, starts at 0
	Section string // Heading path, e.g. "사용감 > 발림성"; empty for unsectioned text
	Text    string
}
