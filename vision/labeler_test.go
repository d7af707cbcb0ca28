package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLabels(t *testing.T) {
	assert.Equal(t,
		[]string{"dog", "golden retriever", "park"},
		parseLabels("Dog, Golden Retriever, park."))

	assert.Equal(t,
		[]string{"sunset", "beach"},
		parseLabels("sunset\nbeach\n"))

	assert.Empty(t, parseLabels("  ,, \n"))
}
