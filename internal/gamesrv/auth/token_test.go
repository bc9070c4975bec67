package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volticar/volticar/internal/gamesrv/config"
	"github.com/volticar/volticar/internal/gamesrv/gamecommon"
)

func TestCreateAndValidatePlayerToken(t *testing.T) {
	config.TestInit()
	ctx := context.Background()

	token, expiry, err := CreatePlayerToken("user-123")
	require.Nil(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiry.After(time.Now()))

	userID, err := ValidatePlayerToken(ctx, token)
	require.Nil(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestValidatePlayerToken_Invalid(t *testing.T) {
	config.TestInit()
	ctx := context.Background()

	_, err := ValidatePlayerToken(ctx, "")
	assert.NotNil(t, err)

	_, err = ValidatePlayerToken(ctx, "not-a-jwt")
	assert.NotNil(t, err)

	// Token signed with a different key.
	claims := &PlayerClaims{
		TokenUse: "player",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, signErr := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-key"))
	require.NoError(t, signErr)
	_, err = ValidatePlayerToken(ctx, forged)
	assert.NotNil(t, err)
}

func TestValidatePlayerToken_Expired(t *testing.T) {
	config.TestInit()
	ctx := context.Background()

	skew := config.Config().Auth.GetClockSkewOrDefault()
	claims := &PlayerClaims{
		TokenUse: "player",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-skew - time.Hour)),
		},
	}
	expired, signErr := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(config.Config().Auth.TokenSigningKey))
	require.NoError(t, signErr)

	_, err := ValidatePlayerToken(ctx, expired)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidatePlayerToken_WrongTokenUse(t *testing.T) {
	config.TestInit()
	ctx := context.Background()

	claims := &PlayerClaims{
		TokenUse: "service",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, signErr := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(config.Config().Auth.TokenSigningKey))
	require.NoError(t, signErr)

	_, err := ValidatePlayerToken(ctx, token)
	assert.NotNil(t, err)
}

func TestPlayerAuthMiddleware(t *testing.T) {
	config.TestInit()

	var gotUserID string
	handler := PlayerAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = gamecommon.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No authorization header.
	req := httptest.NewRequest(http.MethodGet, "/player/vehicles", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	req = httptest.NewRequest(http.MethodGet, "/player/vehicles", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token.
	token, _, err := CreatePlayerToken("user-xyz")
	require.Nil(t, err)
	req = httptest.NewRequest(http.MethodGet, "/player/vehicles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-xyz", gotUserID)

	// Test token with explicit test user header.
	req = httptest.NewRequest(http.MethodGet, "/player/vehicles", nil)
	req.Header.Set("Authorization", "Bearer "+config.Config().Auth.TestUserToken)
	req.Header.Set(TestUserIDHeader, "user-abc")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-abc", gotUserID)
}
