package serialsvc

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaonic-radio/kaonic-comm/internal/hdlc"
	"github.com/kaonic-radio/kaonic-comm/internal/rf215"
	"github.com/kaonic-radio/kaonic-comm/internal/radioservice"
	"github.com/kaonic-radio/kaonic-comm/internal/rfnet"
	"github.com/kaonic-radio/kaonic-comm/internal/wire"
)

// syncBuf is a minimal concurrency-safe io.ReadWriter backed by an
// in-memory buffer, standing in for a serial port in tests.
type syncBuf struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuf) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuf) Read(p []byte) (int, error) {
	for {
		b.mu.Lock()
		n, err := b.buf.Read(p)
		b.mu.Unlock()
		if n > 0 || err != nil {
			return n, err
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestRadioService(t *testing.T, n int) *radioservice.Service {
	t.Helper()
	devices := make([]*rf215.Device, n)
	for i := range devices {
		dev, err := rf215.New(rf215.Callbacks{
			Write: func(uint16, []byte) error { return nil },
			Read:  func(addr uint16, buf []byte) error { buf[0] = 0x52; return nil },
			Reset: func(bool) error { return nil },
		}, nil)
		require.NoError(t, err)
		require.NoError(t, dev.Init())
		devices[i] = dev
	}
	var id uint64
	svc, err := radioservice.New(context.Background(), devices, rfnet.Config{SlotDuration: time.Millisecond}, func() uint64 {
		id++
		return id
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestConfigFrameAppliesConfigure(t *testing.T) {
	radioSvc := newTestRadioService(t, 1)
	conn := &syncBuf{}
	s := New(conn, radioSvc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	dev, err := radioSvc.Device(0)
	require.NoError(t, err)

	// Before any frame arrives, the device carries only its zero-value
	// config; a nonzero frequency after the write below can only have come
	// from the serial dispatch path actually calling Configure.
	require.Zero(t, dev.Config().CenterFreqKHz)

	want := rf215.RadioConfig{
		CenterFreqKHz: 869_535, Channel: 1, ChannelSpacing: 200, TXPowerIndex: 10,
		PHY: rf215.PHYConfig{Kind: rf215.PHYOFDM, OFDM: rf215.OFDMConfig{MCS: 6, Opt: 0}},
	}
	pkt := &wire.ConfigPacket{
		Module:         0,
		FreqKHz:        want.CenterFreqKHz,
		Channel:        want.Channel,
		ChannelSpacing: want.ChannelSpacing,
		TXPower:        want.TXPowerIndex,
		PHY:            want.PHY,
	}
	tag, payload, err := wire.Encode(pkt)
	require.NoError(t, err)
	_, err = conn.Write(hdlc.Frame(tag, payload))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return dev.Config().CenterFreqKHz == want.CenterFreqKHz
	}, time.Second, 5*time.Millisecond, "serial dispatch never applied the inbound config frame")

	assert.Equal(t, want, dev.Config())
}
