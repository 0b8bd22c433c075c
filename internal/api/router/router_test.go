package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKeys(t *testing.T) {
	assert.Empty(t, parseKeys(""))
	assert.Empty(t, parseKeys(" , ,"))

	keys := parseKeys("alpha, beta ,gamma")
	assert.Len(t, keys, 3)
	assert.True(t, keys["alpha"])
	assert.True(t, keys["beta"])
	assert.True(t, keys["gamma"])
	assert.False(t, keys[""])
}
