package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestPackUnpackRoundTrip covers spec §8 property 3, including tails not
// aligned to 4 bytes.
func TestPackUnpackRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b := rapid.SliceOfN(rapid.Byte(), 0, 2048).Draw(rt, "b")
		words := PackFrame(b)
		got := UnpackFrame(words, len(b))
		assert.Equal(rt, b, got)
	})
}

func TestPackZeroPadsTrailingWord(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5}
	words := PackFrame(b)
	assert.Len(t, words, 2)
	assert.Equal(t, uint32(5), words[1]&0xFF)
	assert.Equal(t, uint32(0), words[1]>>8)
}
