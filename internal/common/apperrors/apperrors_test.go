package apperrors

import (
	"errors"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorChaining(t *testing.T) {
	root := New("inventory error").SetStatusCode(http.StatusBadRequest)
	derived := root.New("item not found").SetStatusCode(http.StatusNotFound)

	assert.Equal(t, "item not found", derived.Error())
	assert.Equal(t, http.StatusNotFound, derived.StatusCode())
	assert.True(t, errors.Is(derived, root))
}

func TestStatusCodeInheritance(t *testing.T) {
	root := New("setup error").SetStatusCode(http.StatusConflict)
	child := root.New("active session exists")
	assert.Equal(t, http.StatusConflict, child.StatusCode())
}

func TestMsgWrapsOriginal(t *testing.T) {
	root := New("db error").SetStatusCode(http.StatusInternalServerError)
	wrapped := root.Msg("failed to load player")

	assert.Equal(t, "failed to load player", wrapped.Error())
	assert.True(t, errors.Is(wrapped, root))
	assert.Contains(t, wrapped.ErrorAll(), "db error")
}

func TestErrAttachesCauses(t *testing.T) {
	root := New("commit failed").SetStatusCode(http.StatusBadRequest)
	cause := pkgerrors.New("stock drifted")
	err := root.Err(cause)

	assert.Equal(t, "commit failed", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.ErrorAll(), "stock drifted")
}

func TestIsDoesNotMatchUnrelated(t *testing.T) {
	a := New("a")
	b := New("b")
	assert.False(t, errors.Is(a, b))
}
