package radioservice

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

func fakeDevice(t *testing.T) *rf215.Device {
	t.Helper()
	dev, err := rf215.New(rf215.Callbacks{
		Write: func(uint16, []byte) error { return nil },
		Read: func(addr uint16, buf []byte) error {
			buf[0] = 0x52
			return nil
		},
		Reset: func(bool) error { return nil },
	}, nil)
	require.NoError(t, err)
	require.NoError(t, dev.Init())
	return dev
}

func newTestService(t *testing.T, n int) *Service {
	t.Helper()
	devices := make([]*rf215.Device, n)
	for i := range devices {
		devices[i] = fakeDevice(t)
	}
	var id uint64
	svc, err := New(context.Background(), devices, rfnet.Config{SlotDuration: time.Millisecond}, func() uint64 {
		id++
		return id
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestConfigureRejectsOutOfRangeModule(t *testing.T) {
	svc := newTestService(t, 2)
	err := svc.Configure(5, rf215.RadioConfig{})
	assert.ErrorIs(t, err, kerr.New(kerr.InvalidArg))
}

func TestTransmitRejectsOutOfRangeModule(t *testing.T) {
	svc := newTestService(t, 2)
	err := svc.Transmit(context.Background(), 5, []byte("x"))
	assert.ErrorIs(t, err, kerr.New(kerr.InvalidArg))
}

// TestAttachListenerFansOutToEveryFrontend covers spec §8 property 5.
func TestAttachListenerFansOutToEveryFrontend(t *testing.T) {
	svc := newTestService(t, 3)
	handles := svc.AttachListener(func([]byte) {})
	assert.Len(t, handles, 3)
	assert.Equal(t, 3, svc.ModuleCount())
}

func TestStatsForValidModule(t *testing.T) {
	svc := newTestService(t, 1)
	stats, err := svc.Stats(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.FramesSent)
}
