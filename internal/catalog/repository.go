package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/pagination"
)

// Repository wires together category, product, size, and association
// persistence for the catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListCategories returns the full flat category set.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// FindCategoryByID loads one category.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a new category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// UpdateCategory saves an existing category row.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// DeleteCategory removes a category by id.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}

// CountCategoryReferences counts products and discounts pointing at any of
// the given categories. Deletion is blocked while the count is non-zero.
func (r *Repository) CountCategoryReferences(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var products int64
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id IN ?", ids).
		Count(&products).Error; err != nil {
		return 0, err
	}
	var discounts int64
	if err := r.db.WithContext(ctx).
		Model(&models.Discount{}).
		Where("category_id IN ?", ids).
		Count(&discounts).Error; err != nil {
		return 0, err
	}
	return products + discounts, nil
}

// FindProductByID loads the product with its size variants.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductBySKU loads the product with its size variants by SKU.
func (r *Repository) FindProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		First(&product, "sku = ?", sku).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateProduct saves a product row without touching its size variants.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Sizes").Save(product).Error
}

// DeleteProduct removes a product and its sizes.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", id).Delete(&models.ProductSize{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Product{}).Error
}

// ListProductsByCategories returns every product whose category is in the set.
func (r *Repository) ListProductsByCategories(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Where("category_id IN ?", ids).Find(&rows).Error
	return rows, err
}

// ProductListFilters narrows the catalog listing.
type ProductListFilters struct {
	CategoryIDs []uuid.UUID
	OnlyListed  bool
	Query       string
}

// ProductListResult is one page of products plus the follow-up cursor.
type ProductListResult struct {
	Products   []models.Product
	NextCursor string
}

// ListProducts returns products newest first with cursor pagination.
func (r *Repository) ListProducts(ctx context.Context, params pagination.Params, filters ProductListFilters) (*ProductListResult, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Model(&models.Product{})

	if len(filters.CategoryIDs) > 0 {
		qb = qb.Where("category_id IN ?", filters.CategoryIDs)
	}
	if filters.OnlyListed {
		qb = qb.Where("is_listed = ?", true)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)", pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	err = qb.Order("created_at DESC").
		Order("id DESC").
		Limit(pageSize + 1).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &ProductListResult{Products: rows, NextCursor: nextCursor}, nil
}

// ReplaceSizes replaces all size variants for the product.
func (r *Repository) ReplaceSizes(ctx context.Context, productID uuid.UUID, sizes []models.ProductSize) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductSize{}).Error; err != nil {
		return err
	}
	if len(sizes) == 0 {
		return nil
	}
	return tx.Create(&sizes).Error
}

// RewriteSKU updates a product's SKU and cascades the change into the
// co-purchase association pairs referencing the old value.
func (r *Repository) RewriteSKU(ctx context.Context, productID uuid.UUID, oldSKU, newSKU string) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("sku", newSKU).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.ProductAssociation{}).
		Where("sku_a = ?", oldSKU).
		Update("sku_a", newSKU).Error; err != nil {
		return err
	}
	return tx.Model(&models.ProductAssociation{}).
		Where("sku_b = ?", oldSKU).
		Update("sku_b", newSKU).Error
}

// UpsertAssociation increments the symmetric co-purchase counter for a pair.
// Callers pass the pair already sorted so (A,B) and (B,A) share one row.
func (r *Repository) UpsertAssociation(ctx context.Context, skuA, skuB string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku_a"}, {Name: "sku_b"}},
		DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("count + 1"), "updated_at": time.Now().UTC()}),
	}).Create(&models.ProductAssociation{
		ID:    uuid.New(),
		SKUA:  skuA,
		SKUB:  skuB,
		Count: 1,
	}).Error
}

// TopAssociations returns the strongest co-purchase partners for a SKU.
func (r *Repository) TopAssociations(ctx context.Context, sku string, limit int) ([]models.ProductAssociation, error) {
	if limit <= 0 {
		limit = 4
	}
	var rows []models.ProductAssociation
	err := r.db.WithContext(ctx).
		Where("sku_a = ? OR sku_b = ?", sku, sku).
		Order("count DESC").
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}
