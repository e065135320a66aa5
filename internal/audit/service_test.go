package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	"github.com/ovenbird/bakery-backend/pkg/logger"
	"github.com/ovenbird/bakery-backend/pkg/pagination"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:audit_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditLogEntry{}))
	return db
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "audit-test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func TestServiceRecordPersistsDetails(t *testing.T) {
	t.Parallel()

	db := setupAuditTestDB(t)
	svc, err := NewService(NewRepository(db), testLogger())
	require.NoError(t, err)

	actor := uuid.New()
	target := uuid.New()
	svc.Record(context.Background(), Entry{
		ActorID:    &actor,
		Action:     enums.AuditActionCreate,
		TargetType: enums.AuditTargetOrder,
		TargetID:   &target,
		Before:     nil,
		After:      map[string]any{"total": "654.8"},
		Meta:       map[string]any{"source": "checkout"},
	})

	var rows []models.AuditLogEntry
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.AuditActionCreate, rows[0].Action)
	assert.Equal(t, enums.AuditTargetOrder, rows[0].TargetType)
	require.NotNil(t, rows[0].ActorID)
	assert.Equal(t, actor, *rows[0].ActorID)

	var details entryDetails
	require.NoError(t, json.Unmarshal(rows[0].Details, &details))
	assert.Nil(t, details.Before)
	assert.Equal(t, map[string]any{"total": "654.8"}, details.After)
	assert.Equal(t, map[string]any{"source": "checkout"}, details.Meta)
}

type failingAuditRepo struct{}

func (failingAuditRepo) Create(context.Context, *models.AuditLogEntry) error {
	return errors.New("write refused")
}

func (failingAuditRepo) List(context.Context, pagination.Params, ListFilters) (*ListResult, error) {
	return nil, errors.New("unused")
}

func TestServiceRecordSwallowsRepositoryFailure(t *testing.T) {
	t.Parallel()

	svc, err := NewService(failingAuditRepo{}, testLogger())
	require.NoError(t, err)

	svc.Record(context.Background(), Entry{
		Action:     enums.AuditActionDelete,
		TargetType: enums.AuditTargetProduct,
	})
}

func TestServiceListPaginatesNewestFirst(t *testing.T) {
	t.Parallel()

	db := setupAuditTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		entry := &models.AuditLogEntry{
			ID:         uuid.New(),
			Action:     enums.AuditActionUpdate,
			TargetType: enums.AuditTargetCategory,
			Details:    json.RawMessage(`{}`),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(entry).Error)
	}

	first, err := svc.List(context.Background(), pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, first.Entries, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.True(t, first.Entries[0].CreatedAt.After(first.Entries[1].CreatedAt))

	second, err := svc.List(context.Background(), pagination.Params{Limit: 2, Cursor: first.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	assert.Empty(t, second.NextCursor)
}

func TestServiceListFiltersByTarget(t *testing.T) {
	t.Parallel()

	db := setupAuditTestDB(t)
	svc, err := NewService(NewRepository(db), testLogger())
	require.NoError(t, err)

	targetType := enums.AuditTargetDiscount
	require.NoError(t, db.Create(&models.AuditLogEntry{
		ID:         uuid.New(),
		Action:     enums.AuditActionCreate,
		TargetType: targetType,
		Details:    json.RawMessage(`{}`),
	}).Error)
	require.NoError(t, db.Create(&models.AuditLogEntry{
		ID:         uuid.New(),
		Action:     enums.AuditActionCreate,
		TargetType: enums.AuditTargetProduct,
		Details:    json.RawMessage(`{}`),
	}).Error)

	list, err := svc.List(context.Background(), pagination.Params{}, ListFilters{TargetType: &targetType})
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, targetType, list.Entries[0].TargetType)
}
