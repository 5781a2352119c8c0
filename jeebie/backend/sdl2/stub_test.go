//go:build !sdl2

package sdl2

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/jeebie-core/jeebie/backend"
)

func TestStubUnavailable(t *testing.T) {
	var b backend.Backend = New(44100, nil)
	assert.ErrorIs(t, b.Init(backend.Config{}), ErrUnavailable)
	assert.NoError(t, b.Cleanup())
}
