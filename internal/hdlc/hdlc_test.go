package hdlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestEscapeRoundTrip covers spec §8 property 1 for arbitrary byte strings,
// including ones containing flag, escape, and escape-mask bytes interleaved.
func TestEscapeRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b := rapid.SliceOf(rapid.Byte()).Draw(rt, "b")
		assert.Equal(rt, b, Unescape(Escape(b)))
	})
}

// TestEscapeRoundTripSpecialBytes covers spec §8 scenario S3.
func TestEscapeRoundTripSpecialBytes(t *testing.T) {
	in := []byte{1, 2, 3, 4, 0x7E, 0x7D, 0x20, 8, 9, 10}
	assert.Equal(t, in, Unescape(Escape(in)))
}

func TestFrameDeframeRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload := rapid.SliceOf(rapid.Byte()).Draw(rt, "payload")
		tag := Tag(rapid.IntRange(0, 3).Draw(rt, "tag"))

		frame := Frame(tag, payload)
		gotTag, gotPayload, err := Deframe(frame)
		require.NoError(rt, err)
		assert.Equal(rt, tag, gotTag)
		assert.Equal(rt, payload, gotPayload)
	})
}

func TestDeframeRejectsCorruptedCRC(t *testing.T) {
	frame := Frame(TagTransmit, []byte("hello"))
	frame[len(frame)-1] ^= 0xFF
	_, _, err := Deframe(frame)
	assert.ErrorIs(t, err, ErrBadCRC)
}

func TestDeframeRejectsMissingFlag(t *testing.T) {
	_, _, err := Deframe([]byte{1, 2, 3, 4, 5, 6})
	assert.Error(t, err)
}
