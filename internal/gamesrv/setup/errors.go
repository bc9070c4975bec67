package setup

import (
	"net/http"

	"github.com/volticar/volticar/internal/common/apperrors"
)

var (
	ErrSetup apperrors.Error = apperrors.New("game setup error").SetStatusCode(http.StatusBadRequest)

	ErrPlayerNotFound    apperrors.Error = ErrSetup.New("player not found").SetStatusCode(http.StatusNotFound)
	ErrNoSetup           apperrors.Error = ErrSetup.New("no session setup in progress").SetStatusCode(http.StatusNotFound)
	ErrNoVehicleSelected apperrors.Error = ErrSetup.New("a vehicle must be selected before cargo")

	ErrVehicleNotFound  apperrors.Error = ErrSetup.New("vehicle does not exist").SetStatusCode(http.StatusNotFound)
	ErrVehicleInUse     apperrors.Error = ErrSetup.New("vehicle is in use by an active session").SetStatusCode(http.StatusForbidden)
	ErrVehicleNotUsable apperrors.Error = ErrSetup.New("player cannot use this vehicle").SetStatusCode(http.StatusForbidden)

	ErrItemNotFound apperrors.Error = ErrSetup.New("item does not exist").SetStatusCode(http.StatusNotFound)

	ErrDestinationNotFound apperrors.Error = ErrSetup.New("destination does not exist").SetStatusCode(http.StatusNotFound)
	ErrDestinationLocked   apperrors.Error = ErrSetup.New("destination is locked for this player").SetStatusCode(http.StatusForbidden)

	ErrInvalidSelection apperrors.Error = ErrSetup.New("invalid selection")
)
