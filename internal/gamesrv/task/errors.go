package task

import (
	"net/http"

	"github.com/volticar/volticar/internal/common/apperrors"
)

var (
	ErrTask apperrors.Error = apperrors.New("task error").SetStatusCode(http.StatusBadRequest)

	ErrTaskNotFound       apperrors.Error = ErrTask.New("task not found or not currently available").SetStatusCode(http.StatusNotFound)
	ErrPlayerTaskNotFound apperrors.Error = ErrTask.New("accepted task not found").SetStatusCode(http.StatusNotFound)
	ErrPlayerNotFound     apperrors.Error = ErrTask.New("player not found").SetStatusCode(http.StatusNotFound)

	ErrLevelTooLow         apperrors.Error = ErrTask.New("player level too low for this task").SetStatusCode(http.StatusForbidden)
	ErrPrerequisitesNotMet apperrors.Error = ErrTask.New("prerequisite tasks not completed").SetStatusCode(http.StatusForbidden)
	ErrAlreadyAccepted     apperrors.Error = ErrTask.New("task already accepted").SetStatusCode(http.StatusConflict)

	ErrTerminalStatus  apperrors.Error = ErrTask.New("task is in a terminal status and cannot be abandoned").SetStatusCode(http.StatusForbidden)
	ErrLinkedToSession apperrors.Error = ErrTask.New("task is linked to an active game session").SetStatusCode(http.StatusForbidden)

	ErrInvalidStatusFilter apperrors.Error = ErrTask.New("unsupported status filter")
)
