package auth

import (
	"net/http"

	"github.com/volticar/volticar/internal/common/apperrors"
)

var (
	ErrAuth         apperrors.Error = apperrors.New("authentication error").SetStatusCode(http.StatusUnauthorized)
	ErrInvalidToken apperrors.Error = ErrAuth.New("invalid token")
	ErrExpiredToken apperrors.Error = ErrAuth.New("expired token")
	ErrTokenCreate  apperrors.Error = ErrAuth.New("unable to create token").SetStatusCode(http.StatusInternalServerError)
)
