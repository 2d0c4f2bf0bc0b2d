package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NotNil(t, opts)

	assert.True(t, opts.Headless)
	assert.Equal(t, 1920, opts.ViewportWidth)
	assert.Equal(t, 1080, opts.ViewportHeight)
	assert.NotEmpty(t, opts.UserAgent)
	assert.False(t, strings.Contains(strings.ToLower(opts.UserAgent), "headless"))
}
