package auth

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/internal/audit"
	"github.com/ovenbird/bakery-backend/internal/users"
	pkgauth "github.com/ovenbird/bakery-backend/pkg/auth"
	"github.com/ovenbird/bakery-backend/pkg/config"
	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
	"github.com/ovenbird/bakery-backend/pkg/logger"
	"github.com/ovenbird/bakery-backend/pkg/types"
)

type stubMerger struct {
	calls []string
	err   error
}

func (s *stubMerger) MergeOnLogin(_ context.Context, userID uuid.UUID, sessionID string) error {
	s.calls = append(s.calls, userID.String()+"/"+sessionID)
	return s.err
}

type recordedAudit struct {
	entries []audit.Entry
}

func (r *recordedAudit) Record(_ context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "auth-test-secret", Issuer: "bakery-test", ExpirationMinutes: 15}
}

func newAuthService(t *testing.T) (Service, *stubMerger, *recordedAudit, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:auth_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	merger := &stubMerger{}
	rec := &recordedAudit{}
	logg := logger.New(logger.Options{ServiceName: "auth-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Users:          users.NewRepository(db),
		Carts:          merger,
		Audit:          rec,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		Logger:         logg,
	})
	require.NoError(t, err)
	return svc, merger, rec, db
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	svc, merger, rec, _ := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{
		Name:     "Lena Brot",
		Email:    "  Lena@Example.COM ",
		Password: "sourdough-starter",
	})
	require.NoError(t, err)
	assert.Equal(t, "lena@example.com", registered.User.Email, "email normalized")
	assert.Equal(t, enums.UserRoleCustomer, registered.User.Role)
	assert.NotEmpty(t, registered.AccessToken)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleCustomer, claims.Role)

	resp, err := svc.Login(ctx, LoginRequest{Email: "lena@example.com", Password: "sourdough-starter"}, "guest-7")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	require.Len(t, merger.calls, 1)
	assert.Equal(t, registered.User.ID.String()+"/guest-7", merger.calls[0])

	require.Len(t, rec.entries, 1)
	assert.Equal(t, enums.AuditActionCreate, rec.entries[0].Action)
	assert.Equal(t, enums.AuditTargetUser, rec.entries[0].TargetType)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	req := RegisterRequest{Name: "Lena Brot", Email: "lena@example.com", Password: "sourdough-starter"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	req.Name = "Other Lena"
	_, err = svc.Register(ctx, req)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{name: "missing email", req: RegisterRequest{Name: "A", Password: "longenough"}},
		{name: "missing name", req: RegisterRequest{Email: "a@b.c", Password: "longenough"}},
		{name: "short password", req: RegisterRequest{Name: "A", Email: "a@b.c", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.req)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	svc, merger, _, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Lena", Email: "lena@example.com", Password: "sourdough-starter"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "lena@example.com", Password: "wrong-password"}, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever1"}, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized), "unknown email reads as bad credentials")

	assert.Empty(t, merger.calls, "no merge without a successful login")
}

func TestLoginSurvivesMergeFailure(t *testing.T) {
	t.Parallel()

	svc, merger, _, _ := newAuthService(t)
	ctx := context.Background()
	merger.err = errors.New("session store down")

	_, err := svc.Register(ctx, RegisterRequest{Name: "Lena", Email: "lena@example.com", Password: "sourdough-starter"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "lena@example.com", Password: "sourdough-starter"}, "guest-7")
	require.NoError(t, err, "merge failure never blocks login")
	assert.NotEmpty(t, resp.AccessToken)
}

func TestProfileAndAddressUpsert(t *testing.T) {
	t.Parallel()

	svc, _, rec, db := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{Name: "Lena", Email: "lena@example.com", Password: "sourdough-starter"})
	require.NoError(t, err)
	userID := registered.User.ID

	profile, err := svc.Profile(ctx, userID)
	require.NoError(t, err)
	assert.False(t, profile.Address.Complete())

	address := types.Address{Street: "12 Rye Lane", City: "Portree", State: "Highland", PostalCode: "IV51 9EJ"}
	updated, err := svc.UpdateAddress(ctx, userID, address)
	require.NoError(t, err)
	assert.True(t, updated.Address.Complete())

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", userID).Error)
	assert.Equal(t, "12 Rye Lane", stored.Address.Street)

	_, err = svc.Profile(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	require.Len(t, rec.entries, 2)
	assert.Equal(t, enums.AuditActionUpdate, rec.entries[1].Action)
}
