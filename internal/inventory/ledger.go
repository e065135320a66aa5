package inventory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
)

// ReservationRequest asks for qty units of one product size. SizeName is
// empty for products whose stock lives on the synthetic default size.
type ReservationRequest struct {
	SKU      string
	SizeName string
	Qty      int
}

// Shortfall describes one line that could not be satisfied.
type Shortfall struct {
	SKU       string `json:"sku"`
	SizeName  string `json:"size"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// Reserve decrements stock for every request inside the given transaction.
// Each size row is locked with SELECT ... FOR UPDATE before its stock is
// read, so concurrent checkouts serialize on the same rows. Every line is
// validated before any decrement happens: one shortfall aborts the whole
// batch with the complete shortfall list and no stock change.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "reservation requires a transaction")
	}
	if len(requests) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no reservation lines")
	}
	for _, request := range requests {
		if request.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid quantity %d for %s", request.Qty, request.SKU))
		}
	}

	rows := make([]*models.ProductSize, len(requests))
	var shortfalls []Shortfall
	for i, request := range requests {
		row, err := lockSizeRow(ctx, tx, request)
		if err != nil {
			return err
		}
		if row == nil {
			shortfalls = append(shortfalls, Shortfall{
				SKU:       request.SKU,
				SizeName:  request.SizeName,
				Requested: request.Qty,
				Available: 0,
			})
			continue
		}
		rows[i] = row
		if row.Stock < request.Qty {
			shortfalls = append(shortfalls, Shortfall{
				SKU:       request.SKU,
				SizeName:  request.SizeName,
				Requested: request.Qty,
				Available: row.Stock,
			})
		}
	}

	if len(shortfalls) > 0 {
		return pkgerrors.New(pkgerrors.CodeStock, "insufficient stock").WithDetails(shortfalls)
	}

	for i, request := range requests {
		result := tx.WithContext(ctx).
			Model(&models.ProductSize{}).
			Where("id = ? AND stock >= ?", rows[i].ID, request.Qty).
			Update("stock", gorm.Expr("stock - ?", request.Qty))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeStock, "insufficient stock").
				WithDetails([]Shortfall{{
					SKU:       request.SKU,
					SizeName:  request.SizeName,
					Requested: request.Qty,
					Available: rows[i].Stock,
				}})
		}
	}
	return nil
}

// CheckAvailability reports whether the size row exists with enough stock.
// It takes no lock; checkout re-validates under Reserve's lock before
// decrementing.
func CheckAvailability(ctx context.Context, db *gorm.DB, request ReservationRequest) (bool, error) {
	if request.Qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid quantity %d for %s", request.Qty, request.SKU))
	}
	row, err := findSizeRow(ctx, db, request)
	if err != nil {
		return false, err
	}
	return row != nil && row.Stock >= request.Qty, nil
}

func lockSizeRow(ctx context.Context, tx *gorm.DB, request ReservationRequest) (*models.ProductSize, error) {
	// sqlite has no FOR UPDATE; its single-writer transaction lock already
	// serializes the read-then-decrement there.
	if tx.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return querySizeRow(ctx, tx, request)
}

func findSizeRow(ctx context.Context, db *gorm.DB, request ReservationRequest) (*models.ProductSize, error) {
	return querySizeRow(ctx, db, request)
}

func querySizeRow(ctx context.Context, db *gorm.DB, request ReservationRequest) (*models.ProductSize, error) {
	sizeName := request.SizeName
	if sizeName == "" {
		sizeName = models.DefaultSizeName
	}

	var row models.ProductSize
	err := db.WithContext(ctx).
		Joins("JOIN products ON products.id = product_sizes.product_id").
		Where("products.sku = ? AND product_sizes.name = ?", request.SKU, sizeName).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
