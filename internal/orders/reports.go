package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
)

// ReportPeriod bounds a sales report. Zero values leave that side open.
type ReportPeriod struct {
	From time.Time
	To   time.Time
}

// TopProduct is one line of the best-sellers ranking, aggregated from
// order item snapshots so renamed or deleted products still report.
type TopProduct struct {
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// SalesSummary is the admin dashboard report. Revenue excludes cancelled
// orders; counts cover every order in the period.
type SalesSummary struct {
	TotalOrders    int64                       `json:"total_orders"`
	OrdersByStatus map[enums.OrderStatus]int64 `json:"orders_by_status"`
	Revenue        decimal.Decimal             `json:"revenue"`
	AverageOrder   decimal.Decimal             `json:"average_order"`
	TopProducts    []TopProduct                `json:"top_products"`
}

func (r *Repository) SalesSummary(ctx context.Context, period ReportPeriod, topLimit int) (*SalesSummary, error) {
	if topLimit <= 0 {
		topLimit = 5
	}

	base := r.db.WithContext(ctx).Model(&models.Order{})
	if !period.From.IsZero() {
		base = base.Where("orders.created_at >= ?", period.From)
	}
	if !period.To.IsZero() {
		base = base.Where("orders.created_at < ?", period.To)
	}
	base = base.Session(&gorm.Session{})

	type statusRow struct {
		Status enums.OrderStatus
		Total  int64
	}
	var statusRows []statusRow
	err := base.
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&statusRows).
		Error
	if err != nil {
		return nil, err
	}

	summary := &SalesSummary{
		OrdersByStatus: make(map[enums.OrderStatus]int64, len(statusRows)),
		Revenue:        decimal.Zero,
		AverageOrder:   decimal.Zero,
		TopProducts:    []TopProduct{},
	}
	for _, row := range statusRows {
		summary.OrdersByStatus[row.Status] = row.Total
		summary.TotalOrders += row.Total
	}

	type revenueRow struct {
		Revenue decimal.NullDecimal
		Orders  int64
	}
	var rev revenueRow
	err = base.
		Select("COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders").
		Where("status <> ?", enums.OrderStatusCancelled).
		Scan(&rev).
		Error
	if err != nil {
		return nil, err
	}
	if rev.Revenue.Valid {
		summary.Revenue = rev.Revenue.Decimal
	}
	if rev.Orders > 0 {
		summary.AverageOrder = summary.Revenue.DivRound(decimal.NewFromInt(rev.Orders), 2)
	}

	top := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("order_items.sku, order_items.product_name, SUM(order_items.quantity) AS quantity, SUM(order_items.price * order_items.quantity) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", enums.OrderStatusCancelled).
		Group("order_items.sku, order_items.product_name").
		Order("quantity DESC").
		Limit(topLimit)
	if !period.From.IsZero() {
		top = top.Where("orders.created_at >= ?", period.From)
	}
	if !period.To.IsZero() {
		top = top.Where("orders.created_at < ?", period.To)
	}
	if err := top.Scan(&summary.TopProducts).Error; err != nil {
		return nil, err
	}

	return summary, nil
}
