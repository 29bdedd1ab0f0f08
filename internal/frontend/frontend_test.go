package frontend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaonic-radio/kaonic-comm/internal/kerr"
	"github.com/kaonic-radio/kaonic-comm/internal/rf215"
	"github.com/kaonic-radio/kaonic-comm/internal/rfnet"
)

func newTestDevice(t *testing.T) *rf215.Device {
	t.Helper()
	reads := map[uint16][]byte{}
	dev, err := rf215.New(rf215.Callbacks{
		Write: func(addr uint16, buf []byte) error { return nil },
		Read: func(addr uint16, buf []byte) error {
			if v, ok := reads[addr]; ok {
				copy(buf, v)
			} else {
				buf[0] = 0x52
			}
			return nil
		},
		Reset: func(bool) error { return nil },
	}, nil)
	require.NoError(t, err)
	require.NoError(t, dev.Init())
	return dev
}

func newTestFrontend(t *testing.T, id uint64) *Frontend {
	t.Helper()
	dev := newTestDevice(t)
	f, err := New("test", dev, rfnet.Config{SlotDuration: time.Millisecond}, func() uint64 { return id }, nil)
	require.NoError(t, err)
	return f
}

// TestStartStopIsIdempotent covers spec §8 property 6: a double start or
// stop fails precondition_failed, and a start/stop/start sequence succeeds.
func TestStartStopIsIdempotent(t *testing.T) {
	f := newTestFrontend(t, 1)
	ctx := context.Background()

	require.NoError(t, f.Start(ctx))
	assert.True(t, f.Running())
	assert.ErrorIs(t, f.Start(ctx), kerr.New(kerr.PreconditionFailed))

	require.NoError(t, f.Stop())
	assert.False(t, f.Running())
	assert.ErrorIs(t, f.Stop(), kerr.New(kerr.PreconditionFailed))
}

func TestStartStopCycleRepeats(t *testing.T) {
	f := newTestFrontend(t, 1)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.Start(ctx))
		assert.True(t, f.Running())
		require.NoError(t, f.Stop())
		assert.False(t, f.Running())
	}
}

func TestTransmitQueuesWhenFree(t *testing.T) {
	f := newTestFrontend(t, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.Transmit(ctx, []byte("hello")))
}

func TestAttachListenerReceivesPublishedFrames(t *testing.T) {
	f := newTestFrontend(t, 1)
	received := make(chan []byte, 1)
	f.AttachListener(func(frame []byte) { received <- frame })

	f.bus.Publish([]byte("hi"))
	select {
	case got := <-received:
		assert.Equal(t, []byte("hi"), got)
	case <-time.After(time.Second):
		t.Fatal("listener was not invoked")
	}
}
