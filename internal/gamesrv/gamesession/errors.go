package gamesession

import (
	"net/http"

	"github.com/volticar/volticar/internal/common/apperrors"
)

var (
	ErrGameSession apperrors.Error = apperrors.New("game session error").SetStatusCode(http.StatusBadRequest)

	ErrPlayerNotFound  apperrors.Error = ErrGameSession.New("player not found").SetStatusCode(http.StatusNotFound)
	ErrSessionNotFound apperrors.Error = ErrGameSession.New("game session not found").SetStatusCode(http.StatusNotFound)

	ErrActiveSessionExists apperrors.Error = ErrGameSession.New("a game session is already in progress").SetStatusCode(http.StatusConflict)
	ErrSetupConflict       apperrors.Error = ErrGameSession.New("session setup was modified concurrently").SetStatusCode(http.StatusConflict)

	ErrIncompleteSetup    apperrors.Error = ErrGameSession.New("session setup is incomplete")
	ErrCapacityExceeded   apperrors.Error = ErrGameSession.New("cargo exceeds vehicle capacity")
	ErrInsufficientStock  apperrors.Error = ErrGameSession.New("warehouse stock is insufficient for the selected cargo")
	ErrTaskNotConfirmable apperrors.Error = ErrGameSession.New("confirmed task cannot be completed with this setup")
	ErrVehicleUnavailable apperrors.Error = ErrGameSession.New("selected vehicle is no longer available").SetStatusCode(http.StatusConflict)
)
