package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func intPtr(v int) *int          { return &v }
func int64Ptr(v int64) *int64    { return &v }
func stringPtr(v string) *string { return &v }

// newTestDB opens a migrated SQLite database in a temp dir.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

// testCatalog returns a small catalog:
//
//	10 brand 1, 10000, 선크림, 5 reviews, ingredients 1,2,3
//	11 brand 1, 25000, 선크림, 50 reviews, ingredients 1
//	12 brand 2, 40000, 선크림, 20 reviews, ingredients 1,2
//	13 brand 2, no price, 토너, 100 reviews, ingredients 2,3
func testCatalog() *Catalog {
	return &Catalog{
		Brands: []CatalogBrand{
			{ID: 1, Name: "라네즈"},
			{ID: 2, Name: "이니스프리"},
		},
		Ingredients: []CatalogIngredient{
			{ID: 1, Name: "나이아신아마이드", CautionGrade: stringPtr("1")},
			{ID: 2, Name: "히알루론산"},
			{ID: 3, Name: "세라마이드"},
			{ID: 4, Name: "레티놀", CautionGrade: stringPtr("3")},
		},
		Products: []CatalogProduct{
			{ID: 10, BrandID: 1, Name: "워터 선크림", Price: intPtr(10000), Category: "선크림", ReviewCount: 5, FeatureText: "가볍고 끈적임 없음", IngredientIDs: []int64{1, 2, 3}},
			{ID: 11, BrandID: 1, Name: "톤업 선크림", Price: intPtr(25000), Category: "선크림", ReviewCount: 50, FeatureText: "톤업 효과", IngredientIDs: []int64{1}},
			{ID: 12, BrandID: 2, Name: "데일리 선크림", Price: intPtr(40000), Category: "선크림", ReviewCount: 20, FeatureText: "촉촉한 마무리", IngredientIDs: []int64{1, 2}},
			{ID: 13, BrandID: 2, Name: "그린티 토너", Category: "토너", ReviewCount: 100, FeatureText: "수분 충전", IngredientIDs: []int64{2, 3}},
		},
	}
}

// seedTestCatalog imports testCatalog into db.
func seedTestCatalog(t *testing.T, db *sql.DB) {
	t.Helper()

	if _, err := NewCatalogRepo(db).Import(context.Background(), testCatalog()); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
}

func productIDs(products []ProductRecord) []int64 {
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
