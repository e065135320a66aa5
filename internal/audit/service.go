package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	"github.com/ovenbird/bakery-backend/pkg/logger"
	"github.com/ovenbird/bakery-backend/pkg/pagination"
)

// Service records and lists audit entries. Record never propagates a
// failure: the business mutation it describes has already committed, so a
// broken audit write is logged and discarded.
type Service interface {
	Record(ctx context.Context, entry Entry)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error)
}

// Entry captures one mutating action for the audit trail.
type Entry struct {
	ActorID    *uuid.UUID
	Action     enums.AuditAction
	TargetType enums.AuditTarget
	TargetID   *uuid.UUID
	Before     any
	After      any
	Meta       map[string]any
}

type entryDetails struct {
	Before any            `json:"before"`
	After  any            `json:"after"`
	Meta   map[string]any `json:"meta,omitempty"`
}

type repository interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error)
}

type service struct {
	repo repository
	logg *logger.Logger
}

// NewService wires the audit service with its repository and logger.
func NewService(repo repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Record(ctx context.Context, entry Entry) {
	details, err := json.Marshal(entryDetails{
		Before: entry.Before,
		After:  entry.After,
		Meta:   entry.Meta,
	})
	if err != nil {
		s.logg.Error(ctx, "audit: marshal details", err)
		return
	}

	row := &models.AuditLogEntry{
		ID:         uuid.New(),
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Details:    details,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logg.Error(ctx, "audit: write entry", err)
	}
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error) {
	return s.repo.List(ctx, params, filters)
}
