package broadcaster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInAttachOrder(t *testing.T) {
	b := New()
	var order []int

	b.Attach(func([]byte) { order = append(order, 1) })
	b.Attach(func([]byte) { order = append(order, 2) })
	b.Attach(func([]byte) { order = append(order, 3) })

	b.Publish([]byte("x"))
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestReleaseSkipsWithoutAbortingOthers(t *testing.T) {
	b := New()
	var got []int

	h1 := b.Attach(func([]byte) { got = append(got, 1) })
	b.Attach(func([]byte) { got = append(got, 2) })
	b.Attach(func([]byte) { got = append(got, 3) })

	h1.Release()
	b.Publish([]byte("x"))

	assert.Equal(t, []int{2, 3}, got)
}

func TestReleaseMidPublishSkipsFutureDeliveries(t *testing.T) {
	b := New()
	var got []int
	var h2 *Handle

	b.Attach(func([]byte) {
		got = append(got, 1)
		h2.Release()
	})
	h2 = b.Attach(func([]byte) { got = append(got, 2) })
	b.Attach(func([]byte) { got = append(got, 3) })

	b.Publish([]byte("x"))
	assert.Equal(t, []int{1, 3}, got)
}

func TestReleaseIsIdempotent(t *testing.T) {
	b := New()
	h := b.Attach(func([]byte) {})
	require.Equal(t, 1, b.Len())
	h.Release()
	h.Release()
	assert.Equal(t, 0, b.Len())
}

func TestPublishPastesFrameBytes(t *testing.T) {
	b := New()
	var got []byte
	b.Attach(func(frame []byte) { got = frame })
	b.Publish([]byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3}, got)
}
