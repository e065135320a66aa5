package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	"github.com/ovenbird/bakery-backend/pkg/pagination"
)

// Repository persists append-only audit entries.
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

// Create inserts one audit entry.
func (r *Repository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListFilters narrows the audit listing.
type ListFilters struct {
	ActorID    *uuid.UUID
	TargetType *enums.AuditTarget
	TargetID   *uuid.UUID
}

// ListResult is one page of audit entries, newest first.
type ListResult struct {
	Entries    []models.AuditLogEntry
	NextCursor string
}

// List returns audit entries newest first with cursor pagination.
func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.AuditLogEntry{})
	if filters.ActorID != nil {
		qb = qb.Where("actor_id = ?", *filters.ActorID)
	}
	if filters.TargetType != nil {
		qb = qb.Where("target_type = ?", *filters.TargetType)
	}
	if filters.TargetID != nil {
		qb = qb.Where("target_id = ?", *filters.TargetID)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.AuditLogEntry
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

	return &ListResult{Entries: rows, NextCursor: nextCursor}, nil
}
