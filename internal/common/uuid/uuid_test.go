package uuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsV7(t *testing.T) {
	u := New()
	assert.NotEqual(t, Nil, u)
	assert.Equal(t, 7, int(u.Version()))
}

func TestParseRoundTrip(t *testing.T) {
	u := New()
	parsed, err := Parse(u.String())
	require.NoError(t, err)
	assert.Equal(t, u, parsed)
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate(NewString()))
	assert.False(t, Validate("not-a-uuid"))
	assert.False(t, Validate(""))
}

func TestNewStringOrdering(t *testing.T) {
	// UUIDv7 is time-ordered; successive IDs sort ascending.
	a := NewString()
	b := NewString()
	assert.LessOrEqual(t, a, b)
}
