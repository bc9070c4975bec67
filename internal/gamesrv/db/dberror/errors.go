// Package dberror defines the error values returned by the storage layer.
// Higher layers derive their domain errors from these or translate them.
package dberror

import (
	"net/http"

	"github.com/volticar/volticar/internal/common/apperrors"
)

var (
	ErrDatabase          apperrors.Error = apperrors.New("db error").SetStatusCode(http.StatusInternalServerError)
	ErrAlreadyExists     apperrors.Error = ErrDatabase.New("already exists").SetStatusCode(http.StatusConflict)
	ErrNotFound          apperrors.Error = ErrDatabase.New("not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidInput      apperrors.Error = ErrDatabase.New("invalid input").SetStatusCode(http.StatusBadRequest)
	ErrMissingUserID     apperrors.Error = ErrInvalidInput.New("missing user ID").SetStatusCode(http.StatusBadRequest)
	ErrVersionConflict   apperrors.Error = ErrDatabase.New("concurrent modification").SetStatusCode(http.StatusConflict)
	ErrInsufficientStock apperrors.Error = ErrDatabase.New("insufficient warehouse stock").SetStatusCode(http.StatusBadRequest)
	ErrGuardFailed       apperrors.Error = ErrDatabase.New("commit guard failed").SetStatusCode(http.StatusBadRequest)
	ErrActiveSession     apperrors.Error = ErrDatabase.New("player has an active game session").SetStatusCode(http.StatusConflict)
)
