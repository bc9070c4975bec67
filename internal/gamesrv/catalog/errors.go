package catalog

import (
	"net/http"

	"github.com/volticar/volticar/internal/common/apperrors"
)

var (
	ErrCatalog     apperrors.Error = apperrors.New("catalog error").SetStatusCode(http.StatusInternalServerError)
	ErrSeedIO      apperrors.Error = ErrCatalog.New("unable to read seed files")
	ErrInvalidSeed apperrors.Error = ErrCatalog.New("invalid seed file")
)
