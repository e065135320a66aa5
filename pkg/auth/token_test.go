package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenbird/bakery-backend/pkg/config"
	"github.com/ovenbird/bakery-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "bakery-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	payload := AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
	}

	token, err := MintAccessToken(cfg, time.Now(), payload)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, payload.UserID, claims.UserID)
	assert.Equal(t, payload.Role, claims.Role)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestMintAccessToken_Validation(t *testing.T) {
	t.Parallel()

	valid := AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	cases := []struct {
		name    string
		cfg     config.JWTConfig
		payload AccessTokenPayload
	}{
		{
			name:    "missing secret",
			cfg:     config.JWTConfig{Issuer: "x", ExpirationMinutes: 5},
			payload: valid,
		},
		{
			name:    "missing issuer",
			cfg:     config.JWTConfig{Secret: "s", ExpirationMinutes: 5},
			payload: valid,
		},
		{
			name:    "zero expiration",
			cfg:     config.JWTConfig{Secret: "s", Issuer: "x"},
			payload: valid,
		},
		{
			name:    "nil user id",
			cfg:     testJWTConfig(),
			payload: AccessTokenPayload{Role: enums.UserRoleAdmin},
		},
		{
			name:    "invalid role",
			cfg:     testJWTConfig(),
			payload: AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRole("baker")},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := MintAccessToken(tc.cfg, time.Now(), tc.payload)
			assert.Error(t, err)
		})
	}
}

func TestParseAccessToken_RejectsExpired(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	payload := AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer}

	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), payload)
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	assert.Error(t, err)
}

func TestParseAccessToken_RejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	mintCfg := testJWTConfig()
	mintCfg.Issuer = "someone-else"

	token, err := MintAccessToken(mintCfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(testJWTConfig(), token)
	assert.Error(t, err)
}

func TestParseAccessToken_RejectsTampered(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
	})
	require.NoError(t, err)

	other := cfg
	other.Secret = "different-secret"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)
}
