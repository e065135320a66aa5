package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/internal/audit"
	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
	"github.com/ovenbird/bakery-backend/pkg/logger"
	"github.com/ovenbird/bakery-backend/pkg/pagination"
)

// Service manages order reads and lifecycle transitions after checkout.
type Service interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOwnOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
	UpdateStatus(ctx context.Context, actorID *uuid.UUID, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	ConfirmDelivery(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	SalesReport(ctx context.Context, period ReportPeriod, topLimit int) (*SalesSummary, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type service struct {
	repo  *Repository
	audit auditRecorder
	logg  *logger.Logger
}

// NewService wires the order lifecycle service.
func NewService(repo *Repository, auditSvc auditRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, audit: auditSvc, logg: logg}, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.findOrder(ctx, id)
}

// GetOwnOrder loads an order only for its owning user; anyone else gets the
// same not-found as a missing order.
func (s *service) GetOwnOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error) {
	return s.repo.List(ctx, params, filters)
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	return s.repo.List(ctx, params, ListFilters{UserID: &userID})
}

// UpdateStatus applies an admin-driven lifecycle transition. Edges outside
// processing->shipped->delivered (with cancellation from processing or
// shipped) are rejected without touching the row.
func (s *service) UpdateStatus(ctx context.Context, actorID *uuid.UUID, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", next))
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actorID, order, next)
}

// ConfirmDelivery is the customer-facing transition: only the owning user,
// only from shipped, always to delivered.
func (s *service) ConfirmDelivery(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if order.Status != enums.OrderStatusShipped {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot confirm delivery from %s", order.Status))
	}
	return s.transition(ctx, &userID, order, enums.OrderStatusDelivered)
}

func (s *service) SalesReport(ctx context.Context, period ReportPeriod, topLimit int) (*SalesSummary, error) {
	if !period.From.IsZero() && !period.To.IsZero() && period.To.Before(period.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report period ends before it starts")
	}
	return s.repo.SalesSummary(ctx, period, topLimit)
}

func (s *service) findOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) transition(ctx context.Context, actorID *uuid.UUID, order *models.Order, next enums.OrderStatus) (*models.Order, error) {
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("transition %s -> %s disallowed", order.Status, next)).
			WithDetails(map[string]any{"from": order.Status, "to": next})
	}

	previous := order.Status
	if err := s.repo.UpdateStatus(ctx, order.ID, next); err != nil {
		return nil, err
	}
	order.Status = next

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("order status %s -> %s", previous, next))

	s.audit.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditActionStatus,
		TargetType: enums.AuditTargetOrder,
		TargetID:   &order.ID,
		Before:     map[string]any{"status": previous},
		After:      map[string]any{"status": next},
	})
	return order, nil
}
