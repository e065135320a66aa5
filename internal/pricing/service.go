package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ovenbird/bakery-backend/internal/audit"
	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
)

// Service manages discount rows for the back office.
type Service interface {
	ListDiscounts(ctx context.Context) ([]models.Discount, error)
	CreateDiscount(ctx context.Context, actorID *uuid.UUID, input DiscountInput) (*models.Discount, error)
	UpdateDiscount(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, input DiscountInput) (*models.Discount, error)
	DeleteDiscount(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error
}

// DiscountInput carries the writable discount fields. Exactly one of
// ProductID or CategoryID must be set.
type DiscountInput struct {
	ProductID     *uuid.UUID
	CategoryID    *uuid.UUID
	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
	StartDate     *time.Time
	EndDate       *time.Time
	Active        bool
}

type targetChecker interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type service struct {
	repo    *Repository
	targets targetChecker
	audit   auditRecorder
}

// NewService wires the discount management service.
func NewService(repo *Repository, targets targetChecker, auditSvc auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if targets == nil {
		return nil, fmt.Errorf("target checker required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, targets: targets, audit: auditSvc}, nil
}

func (s *service) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	return s.repo.List(ctx)
}

func (s *service) CreateDiscount(ctx context.Context, actorID *uuid.UUID, input DiscountInput) (*models.Discount, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	discount := &models.Discount{
		ID:            uuid.New(),
		ProductID:     input.ProductID,
		CategoryID:    input.CategoryID,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Active:        input.Active,
	}
	if err := s.repo.Create(ctx, discount); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionCreate,
		TargetType: enums.AuditTargetDiscount,
		TargetID:   &discount.ID,
		After:      discount,
	})
	return discount, nil
}

func (s *service) UpdateDiscount(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, input DiscountInput) (*models.Discount, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	discount, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *discount

	discount.ProductID = input.ProductID
	discount.CategoryID = input.CategoryID
	discount.DiscountType = input.DiscountType
	discount.DiscountValue = input.DiscountValue
	discount.StartDate = input.StartDate
	discount.EndDate = input.EndDate
	discount.Active = input.Active

	if err := s.repo.Update(ctx, discount); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionUpdate,
		TargetType: enums.AuditTargetDiscount,
		TargetID:   &discount.ID,
		Before:     before,
		After:      discount,
	})
	return discount, nil
}

func (s *service) DeleteDiscount(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error {
	discount, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionDelete,
		TargetType: enums.AuditTargetDiscount,
		TargetID:   &id,
		Before:     discount,
	})
	return nil
}

func (s *service) validate(ctx context.Context, input DiscountInput) error {
	if (input.ProductID == nil) == (input.CategoryID == nil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must target exactly one of product or category")
	}
	if !input.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount type %q", input.DiscountType))
	}
	if input.DiscountValue.IsNegative() || input.DiscountValue.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.DiscountType == enums.DiscountTypePercent && input.DiscountValue.GreaterThan(oneHundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percent discount cannot exceed 100")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount end date precedes start date")
	}

	if input.ProductID != nil {
		if _, err := s.targets.FindProductByID(ctx, *input.ProductID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "discount product not found")
		}
	}
	if input.CategoryID != nil {
		if _, err := s.targets.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "discount category not found")
		}
	}
	return nil
}
