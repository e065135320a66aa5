package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/internal/audit"
	"github.com/ovenbird/bakery-backend/internal/cart"
	"github.com/ovenbird/bakery-backend/internal/catalog"
	"github.com/ovenbird/bakery-backend/internal/inventory"
	"github.com/ovenbird/bakery-backend/internal/orders"
	"github.com/ovenbird/bakery-backend/internal/pricing"
	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
	"github.com/ovenbird/bakery-backend/pkg/logger"
	"github.com/ovenbird/bakery-backend/pkg/types"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

type stubCarts struct {
	items   types.CartItems
	cleared []cart.Owner
}

func (s *stubCarts) Cart(_ context.Context, _ cart.Owner) (types.CartItems, error) {
	return s.items, nil
}

func (s *stubCarts) ClearCart(_ context.Context, owner cart.Owner) error {
	s.cleared = append(s.cleared, owner)
	return nil
}

type fixedRates struct{}

func (fixedRates) TaxRate(context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("0.12"), nil
}

func (fixedRates) ShippingFee(context.Context) (decimal.Decimal, error) {
	return decimal.NewFromInt(50), nil
}

type recordedAudit struct {
	entries []audit.Entry
}

func (r *recordedAudit) Record(_ context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:checkout_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.ProductSize{},
		&models.Discount{},
		&models.ProductAssociation{},
		&models.Order{},
		&models.OrderItem{},
	))
	return db
}

type fixture struct {
	db       *gorm.DB
	svc      Service
	users    *stubUsers
	carts    *stubCarts
	audit    *recordedAudit
	userID   uuid.UUID
	ordersDB *orders.Repository
}

func newFixture(t *testing.T, items types.CartItems) *fixture {
	t.Helper()

	db := setupCheckoutTestDB(t)
	catalogRepo := catalog.NewRepository(db)
	ordersRepo := orders.NewRepository(db)
	resolver, err := pricing.NewResolver(pricing.NewRepository(db), catalogRepo)
	require.NoError(t, err)

	userID := uuid.New()
	users := &stubUsers{users: map[uuid.UUID]*models.User{
		userID: {
			ID:      userID,
			Name:    "Lena Brot",
			Address: types.Address{Street: "12 Rye Lane", City: "Portree", State: "Highland", PostalCode: "IV51 9EJ"},
		},
	}}
	carts := &stubCarts{items: items}
	rec := &recordedAudit{}
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Level: zerolog.ErrorLevel, Output: io.Discard})

	svc, err := NewService(gormTxRunner{db: db}, users, carts, catalogRepo, ordersRepo,
		resolver, fixedRates{}, rec, nil, logg)
	require.NoError(t, err)

	return &fixture{db: db, svc: svc, users: users, carts: carts, audit: rec, userID: userID, ordersDB: ordersRepo}
}

func seedProduct(t *testing.T, db *gorm.DB, sku, name string, price decimal.Decimal, stock int, categoryID *uuid.UUID) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		SKU:        sku,
		Name:       name,
		Price:      price,
		CategoryID: categoryID,
		IsListed:   true,
	}
	require.NoError(t, db.Create(product).Error)
	size := &models.ProductSize{
		ID:        uuid.New(),
		ProductID: product.ID,
		Name:      models.DefaultSizeName,
		Stock:     stock,
		Price:     price,
	}
	require.NoError(t, db.Create(size).Error)
	product.Sizes = []models.ProductSize{*size}
	return product
}

func line(sku string, qty int) types.CartItem {
	// Deliberately stale advisory fields; checkout must ignore them.
	return types.CartItem{SKU: sku, Name: "stale", Price: decimal.NewFromInt(1), Stock: 999, Quantity: qty}
}

func TestExecuteComputesTotals(t *testing.T) {
	t.Parallel()

	f := newFixture(t, types.CartItems{line("BRE-CROISS-aaaa1111", 3)})
	seedProduct(t, f.db, "BRE-CROISS-aaaa1111", "Croissant", decimal.NewFromInt(180), 10, nil)

	order, err := f.svc.Execute(context.Background(), f.userID, Input{
		SessionID:      "guest-1",
		ShippingMethod: enums.ShippingMethodDelivery,
		PaymentMethod:  "card",
	})
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(540)), "subtotal %s", order.Subtotal)
	assert.True(t, order.TotalDiscount.Equal(decimal.Zero), "discount %s", order.TotalDiscount)
	assert.True(t, order.Tax.Equal(decimal.RequireFromString("64.8")), "tax %s", order.Tax)
	assert.True(t, order.ShippingFee.Equal(decimal.NewFromInt(50)), "shipping %s", order.ShippingFee)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("654.8")), "total %s", order.Total)
	assert.Equal(t, enums.OrderStatusProcessing, order.Status)
	assert.Equal(t, "Lena Brot", order.CustomerName)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Croissant", item.ProductName, "advisory cart name replaced")
	assert.True(t, item.Price.Equal(decimal.NewFromInt(180)), "advisory cart price replaced")
	assert.Equal(t, 3, item.Quantity)

	var size models.ProductSize
	require.NoError(t, f.db.First(&size, "name = ?", models.DefaultSizeName).Error)
	assert.Equal(t, 7, size.Stock)

	require.Len(t, f.carts.cleared, 2, "persisted and session cart both cleared")
	assert.Equal(t, f.userID, *f.carts.cleared[0].UserID)
	assert.Equal(t, "guest-1", f.carts.cleared[1].SessionID)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, enums.AuditActionCreate, f.audit.entries[0].Action)
	assert.Equal(t, enums.AuditTargetOrder, f.audit.entries[0].TargetType)
	assert.Nil(t, f.audit.entries[0].Before)
}

func TestExecuteAppliesDiscountFromCategoryAncestor(t *testing.T) {
	t.Parallel()

	f := newFixture(t, types.CartItems{line("PAS-TAR-bbbb2222", 2)})
	root := &models.Category{ID: uuid.New(), Name: "pastries", Slug: "pastries"}
	require.NoError(t, f.db.Create(root).Error)
	leaf := &models.Category{ID: uuid.New(), Name: "tarts", Slug: "tarts", ParentID: &root.ID}
	require.NoError(t, f.db.Create(leaf).Error)
	seedProduct(t, f.db, "PAS-TAR-bbbb2222", "Lemon Tart", decimal.NewFromInt(100), 5, &leaf.ID)
	require.NoError(t, f.db.Create(&models.Discount{
		ID:            uuid.New(),
		CategoryID:    &root.ID,
		DiscountType:  enums.DiscountTypePercent,
		DiscountValue: decimal.NewFromInt(10),
		Active:        true,
	}).Error)

	order, err := f.svc.Execute(context.Background(), f.userID, Input{
		ShippingMethod: enums.ShippingMethodPickup,
		PaymentMethod:  "cash",
	})
	require.NoError(t, err)

	// 2 x 100 with 10% off: subtotal 200, discount 20, tax 21.6, no pickup fee.
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(200)), "subtotal %s", order.Subtotal)
	assert.True(t, order.TotalDiscount.Equal(decimal.NewFromInt(20)), "discount %s", order.TotalDiscount)
	assert.True(t, order.Tax.Equal(decimal.RequireFromString("21.6")), "tax %s", order.Tax)
	assert.True(t, order.ShippingFee.Equal(decimal.Zero), "pickup ships free")
	assert.True(t, order.Total.Equal(decimal.RequireFromString("201.6")), "total %s", order.Total)

	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Price.Equal(decimal.NewFromInt(90)))
	assert.True(t, order.Items[0].DiscountAmount.Equal(decimal.NewFromInt(10)))
}

func TestExecuteRejectsIncompleteAddress(t *testing.T) {
	t.Parallel()

	f := newFixture(t, types.CartItems{line("BRE-CROISS-aaaa1111", 1)})
	seedProduct(t, f.db, "BRE-CROISS-aaaa1111", "Croissant", decimal.NewFromInt(180), 10, nil)

	bare := uuid.New()
	f.users.users[bare] = &models.User{
		ID:      bare,
		Name:    "No Address",
		Address: types.Address{Street: "somewhere"},
	}

	_, err := f.svc.Execute(context.Background(), bare, Input{
		ShippingMethod: enums.ShippingMethodDelivery,
		PaymentMethod:  "card",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAddress))

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count, "no order before the address gate")
}

func TestExecuteCollectsAllShortfalls(t *testing.T) {
	t.Parallel()

	f := newFixture(t, types.CartItems{
		line("BRE-CROISS-aaaa1111", 5),
		line("BRE-BAGUET-cccc3333", 2),
		line("GHO-MISSIN-dddd4444", 1),
	})
	seedProduct(t, f.db, "BRE-CROISS-aaaa1111", "Croissant", decimal.NewFromInt(180), 2, nil)
	seedProduct(t, f.db, "BRE-BAGUET-cccc3333", "Baguette", decimal.NewFromInt(90), 10, nil)

	_, err := f.svc.Execute(context.Background(), f.userID, Input{
		ShippingMethod: enums.ShippingMethodDelivery,
		PaymentMethod:  "card",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStock))

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	shortfalls, ok := typed.Details().([]inventory.Shortfall)
	require.True(t, ok)
	require.Len(t, shortfalls, 2, "every failing line listed, not just the first")

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)

	var size models.ProductSize
	require.NoError(t, f.db.First(&size, "stock = ?", 10).Error)
	assert.Equal(t, 10, size.Stock, "sufficient line untouched by the aborted checkout")
}

func TestExecuteRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	_, err := f.svc.Execute(context.Background(), f.userID, Input{
		ShippingMethod: enums.ShippingMethodDelivery,
		PaymentMethod:  "card",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestExecuteRecordsSortedAssociationPairs(t *testing.T) {
	t.Parallel()

	f := newFixture(t, types.CartItems{
		line("BRE-CROISS-aaaa1111", 1),
		line("PAS-TAR-bbbb2222", 1),
	})
	seedProduct(t, f.db, "BRE-CROISS-aaaa1111", "Croissant", decimal.NewFromInt(180), 10, nil)
	seedProduct(t, f.db, "PAS-TAR-bbbb2222", "Lemon Tart", decimal.NewFromInt(100), 10, nil)

	ctx := context.Background()
	input := Input{ShippingMethod: enums.ShippingMethodDelivery, PaymentMethod: "card"}
	_, err := f.svc.Execute(ctx, f.userID, input)
	require.NoError(t, err)
	_, err = f.svc.Execute(ctx, f.userID, input)
	require.NoError(t, err)

	var rows []models.ProductAssociation
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 1, "both orders land on one symmetric pair row")
	assert.Equal(t, "BRE-CROISS-aaaa1111", rows[0].SKUA)
	assert.Equal(t, "PAS-TAR-bbbb2222", rows[0].SKUB)
	assert.Equal(t, 2, rows[0].Count)
}

func TestOrderSnapshotSurvivesCatalogChanges(t *testing.T) {
	t.Parallel()

	f := newFixture(t, types.CartItems{line("BRE-CROISS-aaaa1111", 1)})
	product := seedProduct(t, f.db, "BRE-CROISS-aaaa1111", "Croissant", decimal.NewFromInt(180), 10, nil)

	order, err := f.svc.Execute(context.Background(), f.userID, Input{
		ShippingMethod: enums.ShippingMethodDelivery,
		PaymentMethod:  "card",
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", decimal.NewFromInt(500)).Error)
	require.NoError(t, f.db.Model(&models.ProductSize{}).Where("product_id = ?", product.ID).
		Update("price", decimal.NewFromInt(500)).Error)
	require.NoError(t, f.db.Create(&models.Discount{
		ID:            uuid.New(),
		ProductID:     &product.ID,
		DiscountType:  enums.DiscountTypePercent,
		DiscountValue: decimal.NewFromInt(50),
		Active:        true,
	}).Error)

	stored, err := f.ordersDB.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].Price.Equal(decimal.NewFromInt(180)), "order keeps the checkout-time price")
	assert.True(t, stored.Items[0].DiscountAmount.Equal(decimal.Zero))
	assert.True(t, stored.Subtotal.Equal(decimal.NewFromInt(180)))
}
