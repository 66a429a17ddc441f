package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_catalog_store.go -package=mocks aller-discovery/internal/storage CatalogStore

import (
	"context"
	"database/sql"
	"fmt"
)

// Catalog is the import format for brands, ingredients and products.
type Catalog struct {
	Brands      []CatalogBrand      `json:"brands"`
	Ingredients []CatalogIngredient `json:"ingredients"`
	Products    []CatalogProduct    `json:"products"`
}

// CatalogBrand is a brand entry in a Catalog.
type CatalogBrand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CatalogIngredient is an ingredient entry in a Catalog.
type CatalogIngredient struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	CautionGrade *string `json:"caution_grade,omitempty"`
}

// CatalogProduct is a product entry in a Catalog.
// IngredientIDs are in label order.
type CatalogProduct struct {
	ID            int64   `json:"id"`
	BrandID       int64   `json:"brand_id"`
	Name          string  `json:"name"`
	Price         *int    `json:"price,omitempty"`
	Category      string  `json:"category"`
	ReviewCount   int     `json:"review_count"`
	FeatureText   string  `json:"feature_text"`
	ImageURL      string  `json:"image_url"`
	ProductURL    string  `json:"product_url"`
	IngredientIDs []int64 `json:"ingredient_ids"`
}

// ImportStats reports how many rows an import wrote.
type ImportStats struct {
	Brands      int
	Ingredients int
	Products    int
}

// CatalogStore defines the interface for catalog maintenance and listing.
type CatalogStore interface {
	// Import upserts every entry of the catalog in one transaction.
	Import(ctx context.Context, c *Catalog) (ImportStats, error)
	// ListBrands returns all brands ordered by ID.
	ListBrands(ctx context.Context) ([]Brand, error)
	// ListIngredients returns all ingredients ordered by ID.
	ListIngredients(ctx context.Context) ([]Ingredient, error)
	// ListProducts returns all products ordered by ID, without ingredients.
	ListProducts(ctx context.Context) ([]ProductRecord, error)
}

// CatalogRepo provides methods for catalog operations.
// It implements the CatalogStore interface.
type CatalogRepo struct {
	db       *sql.DB
	postgres bool
}

// NewCatalogRepo creates a new CatalogRepo.
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db, postgres: isPostgres(db)}
}

// Import upserts every entry of the catalog in one transaction.
// A product's ingredient list is replaced by the imported one.
func (r *CatalogRepo) Import(ctx context.Context, c *Catalog) (ImportStats, error) {
	var stats ImportStats
	if c == nil {
		return stats, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, b := range c.Brands {
		if _, err := tx.ExecContext(ctx, rebind(r.postgres,
			`INSERT INTO brands (id, name) VALUES (?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name`),
			b.ID, b.Name,
		); err != nil {
			return stats, fmt.Errorf("failed to upsert brand %d: %w", b.ID, err)
		}
		stats.Brands++
	}

	for _, i := range c.Ingredients {
		if _, err := tx.ExecContext(ctx, rebind(r.postgres,
			`INSERT INTO ingredients (id, name, caution_grade) VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, caution_grade = excluded.caution_grade`),
			i.ID, i.Name, nullString(i.CautionGrade),
		); err != nil {
			return stats, fmt.Errorf("failed to upsert ingredient %d: %w", i.ID, err)
		}
		stats.Ingredients++
	}

	for _, p := range c.Products {
		if _, err := tx.ExecContext(ctx, rebind(r.postgres,
			`INSERT INTO products (id, brand_id, name, price, category, review_count, feature_text, image_url, product_url)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				brand_id = excluded.brand_id,
				name = excluded.name,
				price = excluded.price,
				category = excluded.category,
				review_count = excluded.review_count,
				feature_text = excluded.feature_text,
				image_url = excluded.image_url,
				product_url = excluded.product_url`),
			p.ID, p.BrandID, p.Name, nullInt(p.Price), p.Category, p.ReviewCount, p.FeatureText, p.ImageURL, p.ProductURL,
		); err != nil {
			return stats, fmt.Errorf("failed to upsert product %d: %w", p.ID, err)
		}

		if _, err := tx.ExecContext(ctx, rebind(r.postgres,
			"DELETE FROM product_ingredients WHERE product_id = ?"), p.ID,
		); err != nil {
			return stats, fmt.Errorf("failed to clear ingredients of product %d: %w", p.ID, err)
		}
		for pos, ingID := range uniqueIDs(p.IngredientIDs) {
			if _, err := tx.ExecContext(ctx, rebind(r.postgres,
				"INSERT INTO product_ingredients (product_id, ingredient_id, position) VALUES (?, ?, ?)"),
				p.ID, ingID, pos,
			); err != nil {
				return stats, fmt.Errorf("failed to link ingredient %d to product %d: %w", ingID, p.ID, err)
			}
		}
		stats.Products++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit import: %w", err)
	}

	return stats, nil
}

// ListBrands returns all brands ordered by ID.
func (r *CatalogRepo) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM brands ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var brands []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return brands, nil
}

// ListIngredients returns all ingredients ordered by ID.
func (r *CatalogRepo) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, caution_grade FROM ingredients ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ingredients []Ingredient
	for rows.Next() {
		var (
			i     Ingredient
			grade sql.NullString
		)
		if err := rows.Scan(&i.ID, &i.Name, &grade); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		if grade.Valid {
			g := grade.String
			i.CautionGrade = &g
		}
		ingredients = append(ingredients, i)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ingredients, nil
}

// ListProducts returns all products ordered by ID, without ingredients.
func (r *CatalogRepo) ListProducts(ctx context.Context) ([]ProductRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products p JOIN brands b ON b.id = p.brand_id ORDER BY p.id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var products []ProductRecord
	for rows.Next() {
		var (
			p     ProductRecord
			price sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.BrandID, &p.Brand, &p.Name, &price, &p.Category, &p.ReviewCount,
			&p.FeatureText, &p.ImageURL, &p.ProductURL); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if price.Valid {
			v := int(price.Int64)
			p.Price = &v
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
