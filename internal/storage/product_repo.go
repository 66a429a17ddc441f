package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_product_store.go -package=mocks aller-discovery/internal/storage ProductStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

const productColumns = `p.id, p.brand_id, b.name, p.name, p.price, p.category, p.review_count,
	p.feature_text, p.image_url, p.product_url`

// ProductStore defines the interface for product read operations.
type ProductStore interface {
	// Filter returns products matching every constraint in f.
	// Zero matches is not an error.
	Filter(ctx context.Context, f ProductFilter) ([]ProductRecord, error)
	// FetchByIDs returns products in the order of ids. Unknown IDs are skipped.
	FetchByIDs(ctx context.Context, ids []int64) ([]ProductRecord, error)
	// BrandsOf maps each known product ID to its brand ID.
	BrandsOf(ctx context.Context, productIDs []int64) (map[int64]int64, error)
	// GetByID gets a product by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id int64) (*ProductRecord, error)
}

// ProductRepo provides methods for product operations.
// It implements the ProductStore interface.
type ProductRepo struct {
	db       *sql.DB
	postgres bool
}

// NewProductRepo creates a new ProductRepo.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db, postgres: isPostgres(db)}
}

// Filter returns products matching every constraint in f, ordered per f.Order
// with product ID as the final tie-break, capped at f.Limit when positive.
// Ingredient constraints require the product to contain all listed ingredients.
func (r *ProductRepo) Filter(ctx context.Context, f ProductFilter) ([]ProductRecord, error) {
	if f.Restrict && len(f.CandidateIDs) == 0 {
		return []ProductRecord{}, nil
	}

	var (
		where []string
		args  []any
	)

	if f.BrandID != nil {
		where = append(where, "p.brand_id = ?")
		args = append(args, *f.BrandID)
	}
	if f.ProductID != nil {
		where = append(where, "p.id = ?")
		args = append(args, *f.ProductID)
	}
	if f.Category != nil {
		where = append(where, "p.category = ?")
		args = append(args, *f.Category)
	}
	if f.MinPrice != nil {
		where = append(where, "p.price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "p.price <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.Restrict {
		var in string
		in, args = inClause(f.CandidateIDs, args)
		where = append(where, "p.id IN "+in)
	}
	if len(f.IngredientIDs) > 0 {
		ids := uniqueIDs(f.IngredientIDs)
		var in string
		in, args = inClause(ids, args)
		where = append(where, `p.id IN (
			SELECT product_id FROM product_ingredients
			WHERE ingredient_id IN `+in+`
			GROUP BY product_id
			HAVING COUNT(DISTINCT ingredient_id) = ?)`)
		args = append(args, len(ids))
	}

	var q strings.Builder
	q.WriteString("SELECT ")
	q.WriteString(productColumns)
	q.WriteString(" FROM products p JOIN brands b ON b.id = p.brand_id")
	if len(where) > 0 {
		q.WriteString(" WHERE ")
		q.WriteString(strings.Join(where, " AND "))
	}

	order, orderArgs := orderClause(f)
	q.WriteString(" ORDER BY ")
	q.WriteString(order)
	args = append(args, orderArgs...)

	if f.Limit > 0 {
		q.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	products, err := r.query(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter products: %w", err)
	}
	if err := r.loadIngredients(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// orderClause builds the ORDER BY expression for f.
func orderClause(f ProductFilter) (string, []any) {
	const nullsLast = "CASE WHEN p.price IS NULL THEN 1 ELSE 0 END, "

	order := f.Order
	if order == OrderPriceNearMid && (f.MinPrice == nil || f.MaxPrice == nil) {
		order = OrderDefault
	}

	switch order {
	case OrderPriceAsc:
		return nullsLast + "p.price ASC, p.id ASC", nil
	case OrderPriceDesc:
		return nullsLast + "p.price DESC, p.id ASC", nil
	case OrderPriceNearMid:
		// |2*price - (min+max)| orders the same as |price - midpoint| without fractions.
		sum := int64(*f.MinPrice) + int64(*f.MaxPrice)
		return nullsLast + "ABS(2 * p.price - ?) ASC, p.id ASC", []any{sum}
	default:
		if f.HasPriceBound() {
			return nullsLast + "p.price ASC, p.id ASC", nil
		}
		return "p.review_count DESC, p.id ASC", nil
	}
}

// FetchByIDs returns products in the order of ids. Unknown IDs are skipped.
func (r *ProductRepo) FetchByIDs(ctx context.Context, ids []int64) ([]ProductRecord, error) {
	if len(ids) == 0 {
		return []ProductRecord{}, nil
	}

	ids = uniqueIDs(ids)
	in, args := inClause(ids, nil)
	rows, err := r.query(ctx,
		"SELECT "+productColumns+" FROM products p JOIN brands b ON b.id = p.brand_id WHERE p.id IN "+in,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	byID := make(map[int64]ProductRecord, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}

	products := make([]ProductRecord, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}

	if err := r.loadIngredients(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// BrandsOf maps each known product ID to its brand ID.
func (r *ProductRepo) BrandsOf(ctx context.Context, productIDs []int64) (map[int64]int64, error) {
	result := make(map[int64]int64, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	in, args := inClause(uniqueIDs(productIDs), nil)
	rows, err := r.db.QueryContext(ctx,
		rebind(r.postgres, "SELECT id, brand_id FROM products WHERE id IN "+in),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query product brands: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var id, brandID int64
		if err := rows.Scan(&id, &brandID); err != nil {
			return nil, fmt.Errorf("failed to scan product brand: %w", err)
		}
		result[id] = brandID
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

// GetByID gets a product by its ID. Returns ErrNotFound if not found.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*ProductRecord, error) {
	products, err := r.FetchByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return &products[0], nil
}

// query runs a product SELECT built from productColumns.
func (r *ProductRepo) query(ctx context.Context, query string, args ...any) ([]ProductRecord, error) {
	rows, err := r.db.QueryContext(ctx, rebind(r.postgres, query), args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	products := []ProductRecord{}
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

// loadIngredients fills the Ingredients field of each product in label order.
func (r *ProductRepo) loadIngredients(ctx context.Context, products []ProductRecord) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	index := make(map[int64]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	in, args := inClause(ids, nil)
	rows, err := r.db.QueryContext(ctx, rebind(r.postgres, `
		SELECT pi.product_id, i.id, i.name, i.caution_grade
		FROM product_ingredients pi
		JOIN ingredients i ON i.id = pi.ingredient_id
		WHERE pi.product_id IN `+in+`
		ORDER BY pi.product_id, pi.position, i.id`),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to query product ingredients: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			productID int64
			ing       Ingredient
			grade     sql.NullString
		)
		if err := rows.Scan(&productID, &ing.ID, &ing.Name, &grade); err != nil {
			return fmt.Errorf("failed to scan product ingredient: %w", err)
		}
		if grade.Valid {
			g := grade.String
			ing.CautionGrade = &g
		}
		if i, ok := index[productID]; ok {
			products[i].Ingredients = append(products[i].Ingredients, ing)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	return nil
}
