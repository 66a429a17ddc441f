package service

import "aller-discovery/internal/storage"

// IngredientCard is one ingredient with its caution grade.
type IngredientCard struct {
	Name         string  `json:"name"`
	CautionGrade *string `json:"caution_grade"`
}

// ProductCard is the client-facing view of a ranked product.
type ProductCard struct {
	ID                int64            `json:"pid"`
	Brand             string           `json:"brand"`
	Name              string           `json:"product_name"`
	Price             *int             `json:"price_krw"`
	Category          string           `json:"category,omitempty"`
	FeatureText       string           `json:"rag_text"`
	ImageURL          *string          `json:"image_url"`
	ProductURL        *string          `json:"product_url"`
	Ingredients       []string         `json:"ingredients"`
	IngredientsDetail []IngredientCard `json:"ingredients_detail"`
	Score             *float32         `json:"score,omitempty"`
}

// Present projects ranked products into cards, keeping their order. scores
// may be nil.
func Present(products []storage.ProductRecord, scores map[int64]float32) []ProductCard {
	cards := make([]ProductCard, 0, len(products))
	for _, p := range products {
		card := ProductCard{
			ID:                p.ID,
			Brand:             p.Brand,
			Name:              p.Name,
			Price:             p.Price,
			Category:          p.Category,
			FeatureText:       p.FeatureText,
			ImageURL:          optional(p.ImageURL),
			ProductURL:        optional(p.ProductURL),
			Ingredients:       make([]string, 0, len(p.Ingredients)),
			IngredientsDetail: make([]IngredientCard, 0, len(p.Ingredients)),
		}
		for _, ing := range p.Ingredients {
			card.Ingredients = append(card.Ingredients, ing.Name)
			card.IngredientsDetail = append(card.IngredientsDetail, IngredientCard{Name: ing.Name, CautionGrade: ing.CautionGrade})
		}
		if s, ok := scores[p.ID]; ok {
			card.Score = &s
		}
		cards = append(cards, card)
	}
	return cards
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
