// Package auth issues and validates player access tokens. Tokens are HMAC
// signed JWTs carrying the player's user ID as subject. In internal test mode
// a fixed test token authenticates as a test player without a signature.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/config"
)

const tokenUsePlayer = "player"

// PlayerClaims is the claim set of a player access token.
type PlayerClaims struct {
	TokenUse string `json:"token_use" validate:"required,eq=player"`
	jwt.RegisteredClaims
}

var claimsValidator = validator.New(validator.WithRequiredStructEnabled())

// CreatePlayerToken issues a signed access token for the given player, valid
// for the configured default validity.
func CreatePlayerToken(userID string) (string, time.Time, apperrors.Error) {
	if userID == "" {
		return "", time.Time{}, ErrTokenCreate.Msg("user ID is required")
	}

	validity, err := config.Config().Auth.GetDefaultTokenValidity()
	if err != nil {
		return "", time.Time{}, ErrTokenCreate.Err(err)
	}

	now := time.Now().UTC()
	expiry := now.Add(validity)
	claims := &PlayerClaims{
		TokenUse: tokenUsePlayer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.Config().Auth.TokenSigningKey))
	if err != nil {
		return "", time.Time{}, ErrTokenCreate.Err(err)
	}
	return signed, expiry, nil
}

// ValidatePlayerToken verifies the token signature and claims and returns the
// player's user ID.
func ValidatePlayerToken(ctx context.Context, tokenString string) (string, apperrors.Error) {
	if tokenString == "" {
		return "", ErrInvalidToken.Msg("empty token")
	}

	claims := &PlayerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken.Msg("unexpected signing method")
			}
			return []byte(config.Config().Auth.TokenSigningKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(config.Config().Auth.GetClockSkewOrDefault()),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken.Err(err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	if err := claimsValidator.Struct(claims); err != nil {
		return "", ErrInvalidToken.Msg("invalid claims")
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken.Msg("missing subject")
	}
	return claims.Subject, nil
}
