package rfnet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopback wires two MACs' TX directly into each other's RX queue, standing
// in for a shared radio medium in tests.
type loopback struct {
	mu    sync.Mutex
	inbox [][]byte
}

func (l *loopback) send(data []byte) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inbox = append(l.inbox, append([]byte(nil), data...))
	return len(data)
}

func (l *loopback) recv(dst []byte) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.inbox) == 0 {
		return -1
	}
	pkt := l.inbox[0]
	l.inbox = l.inbox[1:]
	if len(pkt) > len(dst) {
		return -1
	}
	return copy(dst, pkt)
}

func fixedID(id uint64) GenIDFunc { return func() uint64 { return id } }

func newLinkedPair(t *testing.T) (a, b *MAC, toA, toB *loopback, advance func()) {
	t.Helper()
	toA = &loopback{}
	toB = &loopback{}

	clk := time.Now()
	tf := func() time.Time { return clk }

	ma, err := New(Config{SlotDuration: time.Millisecond, GapDuration: 0}, Callbacks{
		TX:    func(_ context.Context, data []byte) int { return toB.send(data) },
		RX:    func(_ context.Context, dst []byte) int { return toA.recv(dst) },
		GenID: fixedID(1),
		Time:  tf,
	}, nil)
	require.NoError(t, err)

	mb, err := New(Config{SlotDuration: time.Millisecond, GapDuration: 0}, Callbacks{
		TX:    func(_ context.Context, data []byte) int { return toA.send(data) },
		RX:    func(_ context.Context, dst []byte) int { return toB.recv(dst) },
		GenID: fixedID(2),
		Time:  tf,
	}, nil)
	require.NoError(t, err)

	// advance moves the shared clock forward by one slot cycle, so slot
	// ownership rotates to the next node id on each call.
	advance = func() { clk = clk.Add(ma.cfg.SlotDuration + ma.cfg.GapDuration) }

	return ma, mb, toA, toB, advance
}

func TestPeerTableTouchRefreshesInPlace(t *testing.T) {
	pt := newPeerTable()
	t0 := time.Now()
	pt.Touch(42, t0)
	pt.Touch(42, t0.Add(time.Second))
	assert.Equal(t, 1, pt.Len())
	assert.Equal(t, t0.Add(time.Second), pt.Snapshot()[0].LastSeen)
}

func TestPeerTableEvictsOldestOnOverflow(t *testing.T) {
	pt := newPeerTable()
	base := time.Now()
	for i := 0; i < PeerTableCapacity; i++ {
		pt.Touch(uint64(i), base.Add(time.Duration(i)*time.Second))
	}
	require.Equal(t, PeerTableCapacity, pt.Len())

	// node 0 is oldest; a new arrival must evict it, not any other entry.
	pt.Touch(999, base.Add(time.Duration(PeerTableCapacity)*time.Second))
	assert.Equal(t, PeerTableCapacity, pt.Len())

	found := map[uint64]bool{}
	for _, e := range pt.Snapshot() {
		found[e.NodeID] = true
	}
	assert.False(t, found[0])
	assert.True(t, found[999])
}

func TestPeerTableExpireStaleMarksThenDrops(t *testing.T) {
	pt := newPeerTable()
	base := time.Now()
	pt.Touch(7, base)

	pt.ExpireStale(base.Add(time.Second), 10*time.Second)
	assert.Equal(t, 1, pt.Len())
	assert.Equal(t, byte(0), pt.Snapshot()[0].Flags&PeerStateStale)

	pt.ExpireStale(base.Add(15*time.Second), 10*time.Second)
	require.Equal(t, 1, pt.Len())
	assert.NotEqual(t, byte(0), pt.Snapshot()[0].Flags&PeerStateStale)

	pt.ExpireStale(base.Add(25*time.Second), 10*time.Second)
	assert.Equal(t, 0, pt.Len())
}

// TestSendRejectsSecondPayloadInFlight covers spec §8 property 8: back
// pressure when the TX queue already holds an in-flight payload.
func TestSendRejectsSecondPayloadInFlight(t *testing.T) {
	m, err := New(Config{}, Callbacks{
		TX:    func(context.Context, []byte) int { return -1 },
		RX:    func(context.Context, []byte) int { return -1 },
		GenID: fixedID(1),
	}, nil)
	require.NoError(t, err)

	require.True(t, m.IsTXFree())
	require.NoError(t, m.Send([]byte("hello")))
	assert.False(t, m.IsTXFree())

	err = m.Send([]byte("world"))
	assert.Error(t, err)
}

// TestFragmentationRoundTrip covers spec §8 property: a payload spanning
// multiple air packets reassembles byte-for-byte on the receiving MAC.
func TestFragmentationRoundTrip(t *testing.T) {
	a, b, _, _, advance := newLinkedPair(t)

	payload := make([]byte, 3*fragPayloadMax+17)
	for i := range payload {
		payload[i] = byte(i)
	}

	var received []byte
	var mu sync.Mutex
	b.cb.OnReceive = func(data []byte) {
		mu.Lock()
		defer mu.Unlock()
		received = append([]byte(nil), data...)
	}

	require.NoError(t, a.Send(payload))

	ctx := context.Background()
	for i := 0; i < 64 && !a.IsTXFree(); i++ {
		a.Update(ctx)
		b.Update(ctx)
		advance()
	}
	assert.True(t, a.IsTXFree())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, payload, received)
}

// TestBeaconUpdatesPeerTable covers spec §4.5: receiving a beacon refreshes
// the peer table entry for its source node id.
func TestBeaconUpdatesPeerTable(t *testing.T) {
	a, b, _, _, _ := newLinkedPair(t)
	ctx := context.Background()

	// Force an immediate beacon by backdating lastBeacon.
	a.mu.Lock()
	a.lastBeacon = time.Time{}
	a.mu.Unlock()

	a.Update(ctx)
	b.Update(ctx)

	peers := b.Peers()
	require.Len(t, peers, 1)
	assert.Equal(t, a.LocalID(), peers[0].NodeID)
}

// TestOwnsSlotIsExclusive covers spec §8 scenario S6: given the same
// observed peer set, exactly one of two nodes owns a given slot.
func TestOwnsSlotIsExclusive(t *testing.T) {
	cfg := Config{SlotDuration: 10 * time.Millisecond, GapDuration: 0}.withDefaults()
	now := time.Now()

	a, err := New(cfg, Callbacks{
		TX: func(context.Context, []byte) int { return -1 }, RX: func(context.Context, []byte) int { return -1 },
		GenID: fixedID(10), Time: func() time.Time { return now },
	}, nil)
	require.NoError(t, err)
	b, err := New(cfg, Callbacks{
		TX: func(context.Context, []byte) int { return -1 }, RX: func(context.Context, []byte) int { return -1 },
		GenID: fixedID(20), Time: func() time.Time { return now },
	}, nil)
	require.NoError(t, err)

	a.mu.Lock()
	a.peers.Touch(20, now)
	a.mu.Unlock()
	b.mu.Lock()
	b.peers.Touch(10, now)
	b.mu.Unlock()

	ownsA := a.ownsSlot(now, a.Peers())
	ownsB := b.ownsSlot(now, b.Peers())
	assert.NotEqual(t, ownsA, ownsB)
}

func TestSendRejectsEmptyPayload(t *testing.T) {
	m, err := New(Config{}, Callbacks{
		TX: func(context.Context, []byte) int { return -1 }, RX: func(context.Context, []byte) int { return -1 },
		GenID: fixedID(1),
	}, nil)
	require.NoError(t, err)
	assert.Error(t, m.Send(nil))
}
