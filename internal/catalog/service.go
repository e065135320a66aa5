package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/internal/audit"
	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
	"github.com/ovenbird/bakery-backend/pkg/logger"
	"github.com/ovenbird/bakery-backend/pkg/pagination"
)

// Service exposes catalog management and browsing.
type Service interface {
	CategoryTree(ctx context.Context) ([]*CategoryNode, error)
	CreateCategory(ctx context.Context, actorID *uuid.UUID, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error

	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	ListProducts(ctx context.Context, params pagination.Params, input ListProductsInput) (*ProductListResult, error)
	CreateProduct(ctx context.Context, actorID *uuid.UUID, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, input ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error
	ReplaceSizes(ctx context.Context, actorID *uuid.UUID, productID uuid.UUID, sizes []SizeInput) (*models.Product, error)
	RelatedProducts(ctx context.Context, sku string, limit int) ([]models.Product, error)
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name     string
	Slug     string
	ParentID *uuid.UUID
	Image    *string
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name        string
	Price       decimal.Decimal
	Image       *string
	Description *string
	CategoryID  *uuid.UUID
	IsListed    *bool
}

// SizeInput carries one size variant for ReplaceSizes.
type SizeInput struct {
	Name  string
	Stock int
	Price decimal.Decimal
	Image *string
}

// ListProductsInput narrows the storefront/admin product listing. CategoryID
// filters by the category and its whole subtree.
type ListProductsInput struct {
	CategoryID *uuid.UUID
	OnlyListed bool
	Query      string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type service struct {
	repo  *Repository
	tx    txRunner
	audit auditRecorder
	logg  *logger.Logger
}

// NewService wires the catalog service.
func NewService(repo *Repository, tx txRunner, auditSvc auditRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, audit: auditSvc, logg: logg}, nil
}

func (s *service) CategoryTree(ctx context.Context) ([]*CategoryNode, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(categories), nil
}

func (s *service) CreateCategory(ctx context.Context, actorID *uuid.UUID, input CategoryInput) (*models.Category, error) {
	if err := validateCategoryInput(input); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.ParentID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parent category not found")
		}
	}

	category := &models.Category{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(input.Name),
		Slug:     normalizeSlug(input.Slug, input.Name),
		ParentID: input.ParentID,
		Image:    input.Image,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionCreate,
		TargetType: enums.AuditTargetCategory,
		TargetID:   &category.ID,
		After:      category,
	})
	return category, nil
}

// UpdateCategory applies the input and, when the slug or parent changed,
// regenerates the SKU of every product in the affected subtree inside one
// transaction. A parent that sits inside the category's own subtree is
// rejected before anything is written.
func (s *service) UpdateCategory(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, input CategoryInput) (*models.Category, error) {
	if err := validateCategoryInput(input); err != nil {
		return nil, err
	}

	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *category

	all, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if WouldCreateCycle(all, id, input.ParentID) {
		return nil, pkgerrors.New(pkgerrors.CodeCycle, "category cannot become its own ancestor").
			WithDetails(map[string]any{"category_id": id, "proposed_parent_id": input.ParentID})
	}

	parentChanged := !uuidPtrEqual(category.ParentID, input.ParentID)
	newSlug := normalizeSlug(input.Slug, input.Name)
	slugChanged := category.Slug != newSlug

	category.Name = strings.TrimSpace(input.Name)
	category.Slug = newSlug
	category.ParentID = input.ParentID
	category.Image = input.Image

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateCategory(ctx, category); err != nil {
			return err
		}
		if parentChanged || slugChanged {
			return s.regenerateSubtreeSKUs(ctx, txRepo, category.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionUpdate,
		TargetType: enums.AuditTargetCategory,
		TargetID:   &category.ID,
		Before:     before,
		After:      category,
	})
	return category, nil
}

// DeleteCategory refuses to remove a category while products or discounts
// still reference it or any of its descendants.
func (s *service) DeleteCategory(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return err
	}

	all, err := s.repo.ListCategories(ctx)
	if err != nil {
		return err
	}
	subtree := []uuid.UUID{id}
	for descendant := range DescendantIDs(all, id) {
		subtree = append(subtree, descendant)
	}
	if len(subtree) > 1 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has subcategories")
	}
	references, err := s.repo.CountCategoryReferences(ctx, subtree)
	if err != nil {
		return err
	}
	if references > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category is still referenced by products or discounts")
	}

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionDelete,
		TargetType: enums.AuditTargetCategory,
		TargetID:   &id,
		Before:     category,
	})
	return nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindProductByID(ctx, id)
}

func (s *service) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	return s.repo.FindProductBySKU(ctx, sku)
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params, input ListProductsInput) (*ProductListResult, error) {
	filters := ProductListFilters{
		OnlyListed: input.OnlyListed,
		Query:      input.Query,
	}
	if input.CategoryID != nil {
		all, err := s.repo.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		filters.CategoryIDs = append(filters.CategoryIDs, *input.CategoryID)
		for id := range DescendantIDs(all, *input.CategoryID) {
			filters.CategoryIDs = append(filters.CategoryIDs, id)
		}
	}
	return s.repo.ListProducts(ctx, params, filters)
}

func (s *service) CreateProduct(ctx context.Context, actorID *uuid.UUID, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	ancestry, err := s.productAncestry(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	product := &models.Product{
		ID:          id,
		SKU:         DeriveSKU(ancestry, input.Name, id),
		Name:        strings.TrimSpace(input.Name),
		Price:       input.Price,
		Image:       input.Image,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		IsListed:    input.IsListed == nil || *input.IsListed,
		Sizes: []models.ProductSize{{
			ID:    uuid.New(),
			Name:  models.DefaultSizeName,
			Stock: 0,
			Price: input.Price,
		}},
	}
	for i := range product.Sizes {
		product.Sizes[i].ProductID = id
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionCreate,
		TargetType: enums.AuditTargetProduct,
		TargetID:   &product.ID,
		After:      product,
	})
	return product, nil
}

// UpdateProduct saves the product and regenerates its SKU when the name or
// category changed, rewriting the co-purchase pairs in the same transaction.
func (s *service) UpdateProduct(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *product

	nameChanged := product.Name != strings.TrimSpace(input.Name)
	categoryChanged := !uuidPtrEqual(product.CategoryID, input.CategoryID)

	product.Name = strings.TrimSpace(input.Name)
	product.Price = input.Price
	product.Image = input.Image
	product.Description = input.Description
	product.CategoryID = input.CategoryID
	if input.IsListed != nil {
		product.IsListed = *input.IsListed
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateProduct(ctx, product); err != nil {
			return err
		}
		if nameChanged || categoryChanged {
			ancestry, err := s.productAncestry(ctx, product.CategoryID)
			if err != nil {
				return err
			}
			newSKU := DeriveSKU(ancestry, product.Name, product.ID)
			if newSKU != before.SKU {
				if err := txRepo.RewriteSKU(ctx, product.ID, before.SKU, newSKU); err != nil {
					return err
				}
				product.SKU = newSKU
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionUpdate,
		TargetType: enums.AuditTargetProduct,
		TargetID:   &product.ID,
		Before:     before,
		After:      product,
	})
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionDelete,
		TargetType: enums.AuditTargetProduct,
		TargetID:   &id,
		Before:     product,
	})
	return nil
}

// ReplaceSizes swaps the product's size variants wholesale. An empty input
// reinstates the synthetic default size so the product keeps a stock holder.
func (s *service) ReplaceSizes(ctx context.Context, actorID *uuid.UUID, productID uuid.UUID, sizes []SizeInput) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	before := append([]models.ProductSize(nil), product.Sizes...)

	if len(sizes) == 0 {
		sizes = []SizeInput{{Name: models.DefaultSizeName, Stock: 0, Price: product.Price}}
	}

	rows := make([]models.ProductSize, 0, len(sizes))
	seen := make(map[string]struct{}, len(sizes))
	for _, size := range sizes {
		name := strings.TrimSpace(size.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "size name is required")
		}
		if _, dup := seen[name]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate size %q", name))
		}
		seen[name] = struct{}{}
		if size.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "size stock cannot be negative")
		}
		if size.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "size price cannot be negative")
		}
		rows = append(rows, models.ProductSize{
			ID:        uuid.New(),
			ProductID: productID,
			Name:      name,
			Stock:     size.Stock,
			Price:     size.Price,
			Image:     size.Image,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceSizes(ctx, productID, rows)
	})
	if err != nil {
		return nil, err
	}
	product.Sizes = rows

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionUpdate,
		TargetType: enums.AuditTargetProduct,
		TargetID:   &productID,
		Before:     before,
		After:      rows,
		Meta:       map[string]any{"field": "sizes"},
	})
	return product, nil
}

// RelatedProducts returns the strongest co-purchase partners for a SKU,
// skipping partners that are no longer listed.
func (s *service) RelatedProducts(ctx context.Context, sku string, limit int) ([]models.Product, error) {
	associations, err := s.repo.TopAssociations(ctx, sku, limit)
	if err != nil {
		return nil, err
	}

	related := make([]models.Product, 0, len(associations))
	for _, association := range associations {
		partner := association.SKUA
		if partner == sku {
			partner = association.SKUB
		}
		product, err := s.repo.FindProductBySKU(ctx, partner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		if !product.IsListed {
			continue
		}
		related = append(related, *product)
	}
	return related, nil
}

func (s *service) regenerateSubtreeSKUs(ctx context.Context, txRepo *Repository, categoryID uuid.UUID) error {
	all, err := txRepo.ListCategories(ctx)
	if err != nil {
		return err
	}
	subtree := []uuid.UUID{categoryID}
	for id := range DescendantIDs(all, categoryID) {
		subtree = append(subtree, id)
	}
	products, err := txRepo.ListProductsByCategories(ctx, subtree)
	if err != nil {
		return err
	}
	for _, product := range products {
		ancestry := ancestryRootFirst(all, product.CategoryID)
		newSKU := DeriveSKU(ancestry, product.Name, product.ID)
		if newSKU == product.SKU {
			continue
		}
		if err := txRepo.RewriteSKU(ctx, product.ID, product.SKU, newSKU); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) productAncestry(ctx context.Context, categoryID *uuid.UUID) ([]models.Category, error) {
	if categoryID == nil {
		return nil, nil
	}
	if _, err := s.repo.FindCategoryByID(ctx, *categoryID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "category not found")
	}
	all, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return ancestryRootFirst(all, categoryID), nil
}

// ancestryRootFirst reverses the id-to-root chain into the root-first order
// SKU segments use.
func ancestryRootFirst(all []models.Category, categoryID *uuid.UUID) []models.Category {
	if categoryID == nil {
		return nil
	}
	chain := AncestorChain(all, *categoryID)
	reversed := make([]models.Category, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		reversed = append(reversed, chain[i])
	}
	return reversed
}

func validateCategoryInput(input CategoryInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	return nil
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}
	return nil
}

func normalizeSlug(slug, name string) string {
	candidate := strings.TrimSpace(slug)
	if candidate == "" {
		candidate = strings.TrimSpace(name)
	}
	candidate = strings.ToLower(candidate)
	var b strings.Builder
	lastDash := true
	for _, r := range candidate {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
