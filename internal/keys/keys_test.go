package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHints(t *testing.T) {
	k := DefaultKeyMap()

	assert.Equal(t, "esc back | s status | d done | k/↑ up | j/↓ down", Hints(k.DetailHints()))
	assert.Contains(t, Hints(k.QueueHints()), "h needs me")

	k.Done.SetEnabled(false)
	assert.NotContains(t, Hints(k.DetailHints()), "d done")
}
