package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
)

func setupPricingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:pricing_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.Discount{}))
	return db
}

type dbCategoryLister struct {
	db *gorm.DB
}

func (l dbCategoryLister) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := l.db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

func newResolver(t *testing.T, db *gorm.DB) *Resolver {
	t.Helper()

	resolver, err := NewResolver(NewRepository(db), dbCategoryLister{db: db})
	require.NoError(t, err)
	return resolver
}

func seedTestCategory(t *testing.T, db *gorm.DB, name string, parent *uuid.UUID) *models.Category {
	t.Helper()

	category := &models.Category{ID: uuid.New(), Name: name, Slug: name, ParentID: parent}
	require.NoError(t, db.Create(category).Error)
	return category
}

func seedDiscount(t *testing.T, db *gorm.DB, discount models.Discount) *models.Discount {
	t.Helper()

	if discount.ID == uuid.Nil {
		discount.ID = uuid.New()
	}
	if discount.DiscountType == "" {
		discount.DiscountType = enums.DiscountTypePercent
	}
	if discount.DiscountValue.IsZero() {
		discount.DiscountValue = decimal.NewFromInt(10)
	}
	require.NoError(t, db.Create(&discount).Error)
	return &discount
}

func TestResolvePrefersProductScopedDiscount(t *testing.T) {
	t.Parallel()

	db := setupPricingTestDB(t)
	resolver := newResolver(t, db)

	category := seedTestCategory(t, db, "breads", nil)
	productID := uuid.New()

	seedDiscount(t, db, models.Discount{CategoryID: &category.ID, Active: true})
	productDiscount := seedDiscount(t, db, models.Discount{ProductID: &productID, Active: true})

	winner, err := resolver.Resolve(context.Background(), productID, &category.ID)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, productDiscount.ID, winner.ID)
}

func TestResolveTieBreaksToNewestProductDiscount(t *testing.T) {
	t.Parallel()

	db := setupPricingTestDB(t)
	resolver := newResolver(t, db)

	productID := uuid.New()
	old := time.Now().UTC().Add(-time.Hour)
	seedDiscount(t, db, models.Discount{ProductID: &productID, Active: true, CreatedAt: old})
	newest := seedDiscount(t, db, models.Discount{ProductID: &productID, Active: true, CreatedAt: time.Now().UTC()})

	winner, err := resolver.Resolve(context.Background(), productID, nil)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, newest.ID, winner.ID)
}

func TestResolveWalksAncestorsClosestFirst(t *testing.T) {
	t.Parallel()

	db := setupPricingTestDB(t)
	resolver := newResolver(t, db)

	root := seedTestCategory(t, db, "root", nil)
	mid := seedTestCategory(t, db, "mid", &root.ID)
	leaf := seedTestCategory(t, db, "leaf", &mid.ID)

	rootDiscount := seedDiscount(t, db, models.Discount{CategoryID: &root.ID, Active: true})

	winner, err := resolver.Resolve(context.Background(), uuid.New(), &leaf.ID)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, rootDiscount.ID, winner.ID)

	midDiscount := seedDiscount(t, db, models.Discount{CategoryID: &mid.ID, Active: true})
	winner, err = resolver.Resolve(context.Background(), uuid.New(), &leaf.ID)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, midDiscount.ID, winner.ID, "closer ancestor wins")
}

func TestResolveSkipsInactiveAndExpired(t *testing.T) {
	t.Parallel()

	db := setupPricingTestDB(t)
	resolver := newResolver(t, db)

	productID := uuid.New()
	past := time.Now().UTC().Add(-48 * time.Hour)
	ended := time.Now().UTC().Add(-24 * time.Hour)
	seedDiscount(t, db, models.Discount{ProductID: &productID, Active: false})
	seedDiscount(t, db, models.Discount{ProductID: &productID, Active: true, StartDate: &past, EndDate: &ended})

	winner, err := resolver.Resolve(context.Background(), productID, nil)
	require.NoError(t, err)
	assert.Nil(t, winner)
}

func TestResolveTerminatesOnCategoryCycle(t *testing.T) {
	t.Parallel()

	db := setupPricingTestDB(t)
	resolver := newResolver(t, db)

	a := seedTestCategory(t, db, "a", nil)
	b := seedTestCategory(t, db, "b", &a.ID)
	require.NoError(t, db.Model(&models.Category{}).Where("id = ?", a.ID).Update("parent_id", b.ID).Error)

	winner, err := resolver.Resolve(context.Background(), uuid.New(), &b.ID)
	require.NoError(t, err)
	assert.Nil(t, winner)
}

func TestResolveNoCategoryNoDiscount(t *testing.T) {
	t.Parallel()

	db := setupPricingTestDB(t)
	resolver := newResolver(t, db)

	winner, err := resolver.Resolve(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, winner)
}
