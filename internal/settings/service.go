package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/internal/audit"
	"github.com/ovenbird/bakery-backend/pkg/config"
	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
)

// Setting keys persisted in store_settings.
const (
	KeyTaxRate     = "tax_rate"
	KeyShippingFee = "shipping_fee"
)

// Service exposes the typed storefront settings backing checkout totals.
type Service interface {
	TaxRate(ctx context.Context) (decimal.Decimal, error)
	ShippingFee(ctx context.Context) (decimal.Decimal, error)
	All(ctx context.Context) ([]models.StoreSetting, error)
	Update(ctx context.Context, actorID *uuid.UUID, key, value string) (*models.StoreSetting, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type service struct {
	repo     *Repository
	defaults config.CheckoutConfig
	audit    auditRecorder
}

// NewService wires the settings service. Config defaults cover keys the
// database has no row for yet.
func NewService(repo *Repository, defaults config.CheckoutConfig, auditSvc auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if _, err := decimal.NewFromString(defaults.TaxRate); err != nil {
		return nil, fmt.Errorf("invalid default tax rate %q: %w", defaults.TaxRate, err)
	}
	if _, err := decimal.NewFromString(defaults.ShippingFee); err != nil {
		return nil, fmt.Errorf("invalid default shipping fee %q: %w", defaults.ShippingFee, err)
	}
	return &service{repo: repo, defaults: defaults, audit: auditSvc}, nil
}

func (s *service) TaxRate(ctx context.Context) (decimal.Decimal, error) {
	return s.decimalSetting(ctx, KeyTaxRate, s.defaults.TaxRate)
}

func (s *service) ShippingFee(ctx context.Context) (decimal.Decimal, error) {
	return s.decimalSetting(ctx, KeyShippingFee, s.defaults.ShippingFee)
}

func (s *service) All(ctx context.Context) ([]models.StoreSetting, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, actorID *uuid.UUID, key, value string) (*models.StoreSetting, error) {
	switch key {
	case KeyTaxRate, KeyShippingFee:
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("setting %s must be numeric", key))
		}
		if parsed.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("setting %s cannot be negative", key))
		}
		if key == KeyTaxRate && parsed.GreaterThan(decimal.NewFromInt(1)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax rate is a fraction between 0 and 1")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown setting %q", key))
	}

	before, err := s.repo.Find(ctx, key)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	setting := &models.StoreSetting{Key: key, Value: value}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionUpdate,
		TargetType: enums.AuditTargetSetting,
		Before:     before,
		After:      setting,
		Meta:       map[string]any{"key": key},
	})
	return setting, nil
}

func (s *service) decimalSetting(ctx context.Context, key, fallback string) (decimal.Decimal, error) {
	setting, err := s.repo.Find(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.NewFromString(fallback)
		}
		return decimal.Zero, err
	}
	parsed, err := decimal.NewFromString(setting.Value)
	if err != nil {
		return decimal.NewFromString(fallback)
	}
	return parsed, nil
}
