package checkout

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
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
	"github.com/ovenbird/bakery-backend/pkg/metrics"
	"github.com/ovenbird/bakery-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type cartAccessor interface {
	Cart(ctx context.Context, owner cart.Owner) (types.CartItems, error)
	ClearCart(ctx context.Context, owner cart.Owner) error
}

type discountResolver interface {
	Resolve(ctx context.Context, productID uuid.UUID, categoryID *uuid.UUID) (*models.Discount, error)
}

type checkoutRates interface {
	TaxRate(ctx context.Context) (decimal.Decimal, error)
	ShippingFee(ctx context.Context) (decimal.Decimal, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service turns a cart into an order.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error)
}

// Input carries the per-checkout choices the customer made.
type Input struct {
	SessionID      string
	ShippingMethod enums.ShippingMethod
	PaymentMethod  string
}

type service struct {
	tx       txRunner
	users    userLoader
	carts    cartAccessor
	catalog  *catalog.Repository
	orders   *orders.Repository
	resolver discountResolver
	rates    checkoutRates
	audit    auditRecorder
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
}

// NewService wires the checkout orchestrator.
func NewService(
	tx txRunner,
	users userLoader,
	carts cartAccessor,
	catalogRepo *catalog.Repository,
	ordersRepo *orders.Repository,
	resolver discountResolver,
	rates checkoutRates,
	auditSvc auditRecorder,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart accessor required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("discount resolver required")
	}
	if rates == nil {
		return nil, fmt.Errorf("checkout rates required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		users:    users,
		carts:    carts,
		catalog:  catalogRepo,
		orders:   ordersRepo,
		resolver: resolver,
		rates:    rates,
		audit:    auditSvc,
		metrics:  checkoutMetrics,
		logg:     logg,
	}, nil
}

// Execute runs the whole pipeline: preconditions outside the transaction,
// then reservation, pricing, order insert and association counters inside a
// single transaction, then cart clearing and the audit entry after commit.
// Client-supplied price, stock and image on cart lines are advisory only;
// everything is re-read from the catalog before money moves.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	started := time.Now()
	order, err := s.execute(ctx, userID, input)
	if err != nil {
		s.metrics.ObserveDuration("failure", time.Since(started))
		s.metrics.IncFailure(failureReason(err))
		return nil, err
	}
	s.metrics.ObserveDuration("success", time.Since(started))
	s.metrics.IncOrder(string(input.ShippingMethod))
	return order, nil
}

func (s *service) execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	if !input.ShippingMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown shipping method %q", input.ShippingMethod))
	}
	if input.PaymentMethod == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Address.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeAddress, "shipping address incomplete").
			WithDetails(map[string]any{"missing_fields": user.Address.MissingFields()})
	}

	owner := cart.Owner{UserID: &userID, SessionID: input.SessionID}
	items, err := s.carts.Cart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	taxRate, err := s.rates.TaxRate(ctx)
	if err != nil {
		return nil, err
	}
	shippingFee, err := s.rates.ShippingFee(ctx)
	if err != nil {
		return nil, err
	}
	if input.ShippingMethod == enums.ShippingMethodPickup {
		shippingFee = decimal.Zero
	}

	order := &models.Order{
		ID:             uuid.New(),
		UserID:         userID,
		CustomerName:   user.Name,
		Address:        user.Address,
		ShippingMethod: input.ShippingMethod,
		PaymentMethod:  input.PaymentMethod,
		Status:         enums.OrderStatusProcessing,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogRepo := s.catalog.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		if err := inventory.Reserve(ctx, tx, reservationRequests(items)); err != nil {
			return err
		}

		subtotal := decimal.Zero
		totalDiscount := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			product, err := catalogRepo.FindProductBySKU(ctx, item.SKU)
			if err != nil {
				return err
			}
			size, err := resolveSize(product, item.SelectedSize)
			if err != nil {
				return err
			}

			discount, err := s.resolver.Resolve(ctx, product.ID, product.CategoryID)
			if err != nil {
				return err
			}
			quote := pricing.ApplyDiscount(size.Price, discount)
			qty := decimal.NewFromInt(int64(item.Quantity))
			subtotal = subtotal.Add(quote.OriginalPrice.Mul(qty))
			totalDiscount = totalDiscount.Add(quote.DiscountAmount.Mul(qty))

			orderItems = append(orderItems, models.OrderItem{
				ID:             uuid.New(),
				OrderID:        order.ID,
				SKU:            product.SKU,
				ProductName:    product.Name,
				Size:           size.Name,
				Price:          quote.FinalPrice,
				OriginalPrice:  quote.OriginalPrice,
				DiscountAmount: quote.DiscountAmount,
				Quantity:       item.Quantity,
				Image:          product.Image,
			})
		}

		order.Subtotal = subtotal
		order.TotalDiscount = totalDiscount
		order.Tax = subtotal.Sub(totalDiscount).Mul(taxRate)
		order.ShippingFee = shippingFee
		order.Total = subtotal.Sub(totalDiscount).Add(order.Tax).Add(shippingFee)
		order.Items = orderItems

		if err := ordersRepo.Create(ctx, order); err != nil {
			return err
		}
		return recordAssociations(ctx, catalogRepo, orderItems)
	})
	if err != nil {
		return nil, err
	}

	s.clearCarts(ctx, userID, input.SessionID)

	ctx = s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), order.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("checkout complete, total %s", order.Total.String()))

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &userID,
		Action:     enums.AuditActionCreate,
		TargetType: enums.AuditTargetOrder,
		TargetID:   &order.ID,
		After:      order,
	})
	return order, nil
}

func reservationRequests(items types.CartItems) []inventory.ReservationRequest {
	requests := make([]inventory.ReservationRequest, len(items))
	for i, item := range items {
		sizeName := ""
		if item.SelectedSize != nil {
			sizeName = *item.SelectedSize
		}
		requests[i] = inventory.ReservationRequest{
			SKU:      item.SKU,
			SizeName: sizeName,
			Qty:      item.Quantity,
		}
	}
	return requests
}

func resolveSize(product *models.Product, selectedSize *string) (*models.ProductSize, error) {
	name := models.DefaultSizeName
	if selectedSize != nil && *selectedSize != "" {
		name = *selectedSize
	}
	for i := range product.Sizes {
		if product.Sizes[i].Name == name {
			return &product.Sizes[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("product %s has no size %q", product.SKU, name))
}

// recordAssociations bumps the co-purchase counter for every SKU pair in the
// order. Pairs are sorted so (A,B) and (B,A) land on the same row.
func recordAssociations(ctx context.Context, repo *catalog.Repository, items []models.OrderItem) error {
	seen := make(map[string]struct{}, len(items))
	skus := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.SKU]; ok {
			continue
		}
		seen[item.SKU] = struct{}{}
		skus = append(skus, item.SKU)
	}
	sort.Strings(skus)

	for i := 0; i < len(skus); i++ {
		for j := i + 1; j < len(skus); j++ {
			if err := repo.UpsertAssociation(ctx, skus[i], skus[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// clearCarts removes both the persisted and the session cart. The order is
// already committed, so failures here only get logged.
func (s *service) clearCarts(ctx context.Context, userID uuid.UUID, sessionID string) {
	err := s.carts.ClearCart(ctx, cart.Owner{UserID: &userID})
	if sessionID != "" {
		err = multierr.Append(err, s.carts.ClearCart(ctx, cart.Owner{SessionID: sessionID}))
	}
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("cart clear after checkout: %v", err))
	}
}

func failureReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return "internal"
}
