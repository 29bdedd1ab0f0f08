// Package radionet is the L2 radio network interface (spec §4.4): it adapts
// between the mesh MAC's byte-level tx(ctx, data, len)/rx(ctx, data, max_len)
// callbacks and the transceiver driver's fixed-capacity Frame.
package radionet

import (
	"context"
	"time"

	"github.com/kaonic-radio/kaonic-comm/internal/rf215"
)

// pollTimeout is the MAC's cooperative yield granularity (spec §4.4): each
// rx poll blocks the driver for at most this long.
const pollTimeout = time.Millisecond

// Interface adapts one transceiver Device to the mesh MAC's byte-oriented
// TX/RX contract. It owns the reused Frame buffers so neither TX nor RX
// allocates on the hot path (spec §9: no global/static buffers).
type Interface struct {
	dev     *rf215.Device
	txFrame rf215.Frame
	rxFrame rf215.Frame
}

// New wraps dev for use as a mesh MAC TX/RX backend.
func New(dev *rf215.Device) *Interface {
	return &Interface{dev: dev}
}

// TX rejects payloads over the transceiver's frame capacity, copies bytes
// into a reused radio frame, and transmits it; it returns -1 on any
// non-success outcome, matching the MAC callback contract (spec §4.4).
func (n *Interface) TX(ctx context.Context, data []byte) int {
	if len(data) > rf215.MaxFrameLen {
		return -1
	}
	if !n.txFrame.SetBytes(data) {
		return -1
	}
	if err := n.dev.Transmit(ctx, &n.txFrame); err != nil {
		return -1
	}
	return len(data)
}

// RX polls the transceiver for at most 1ms (the MAC's cooperative yield
// granularity); on success it copies the frame into dst and returns its
// length. It returns -1 on timeout, on any receive error, or when the frame
// is longer than dst (no partial copy is made) (spec §4.4).
func (n *Interface) RX(ctx context.Context, dst []byte) int {
	maxLen := len(dst)
	if err := n.dev.Receive(ctx, &n.rxFrame, pollTimeout); err != nil {
		return -1
	}
	if n.rxFrame.Len > maxLen {
		return -1
	}
	copy(dst, n.rxFrame.Bytes())
	return n.rxFrame.Len
}
