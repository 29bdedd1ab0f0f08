// Package rfnet is the mesh MAC (spec §4.5): beacon scheduling, peer table,
// slotted TX serialization, fragmentation/reassembly, and statistics. It is
// specified as an externally-supplied module in the original; this package
// is the Go implementation of its externally observable behavior, built the
// way the teacher pack builds a stateful protocol engine (mutex-guarded
// struct, explicit Update/tick method, injected callback bundle) rather than
// bound through cgo.
package rfnet

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kaonic-radio/kaonic-comm/internal/kerr"
)

// Config is the mesh configuration of spec §3.
type Config struct {
	PacketPattern  uint16
	SlotDuration   time.Duration
	GapDuration    time.Duration
	BeaconInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.PacketPattern == 0 {
		c.PacketPattern = 0x4B4E // "KN"
	}
	if c.SlotDuration == 0 {
		c.SlotDuration = 20 * time.Millisecond
	}
	if c.GapDuration == 0 {
		c.GapDuration = 5 * time.Millisecond
	}
	if c.BeaconInterval == 0 {
		c.BeaconInterval = 2 * time.Second
	}
	return c
}

// TXFunc/RXFunc are the MAC's byte-level transport callbacks (spec §4.5),
// implemented by radionet.Interface in production and by fakes in tests.
type (
	TXFunc        func(ctx context.Context, data []byte) int
	RXFunc        func(ctx context.Context, dst []byte) int
	GenIDFunc     func() uint64
	TimeFunc      func() time.Time
	OnSendFunc    func()
	OnReceiveFunc func(data []byte)
)

// Callbacks bundles the MAC's external hooks (spec §4.5).
type Callbacks struct {
	TX        TXFunc
	RX        RXFunc
	GenID     GenIDFunc
	Time      TimeFunc
	OnSend    OnSendFunc
	OnReceive OnReceiveFunc
}

const (
	airPacketMaxLen   = 256
	airHeaderLen      = 2 + 1 + 8 // pattern + type + srcID
	fragHeaderLen     = airHeaderLen + 4
	fragPayloadMax    = airPacketMaxLen - fragHeaderLen
	maxReassemblyLen  = 10 * 1024 // spec §3: "typically up to ~10 KiB"
)

const (
	pktBeacon byte = iota
	pktFragment
)

// Stats are the MAC's running counters (spec §4.5 "statistics").
type Stats struct {
	FramesSent      uint64
	FramesReceived  uint64
	FragmentsSent   uint64
	FragmentsRecv   uint64
	FramesDropped   uint64
	BeaconsSent     uint64
	BeaconsReceived uint64
}

// MAC is the mesh MAC runtime. Its Update method is the MAC tick of spec
// §4.5; it is meant to be called in a tight cooperative loop by one
// dedicated goroutine per frontend (spec §4.6's update thread).
type MAC struct {
	cfg Config
	cb  Callbacks
	log *log.Logger

	mu       sync.Mutex
	localID  uint64
	peers    *peerTable
	stats    Stats
	lastBeacon time.Time

	// TX queue: at most one in-flight payload (spec §3 invariant).
	txPending   []byte
	txMsgID     byte
	txNextFrag  int
	txFragCount int
	txBusy      bool

	// Reassembly state, one in-flight message per source.
	rx map[uint64]*reassembly

	scratch [airPacketMaxLen]byte
}

type reassembly struct {
	msgID    byte
	total    int
	have     []bool
	haveN    int
	data     []byte
	lastLen  int
	fragSize int
}

// New constructs a MAC. GenID is called once to obtain the local node id
// (spec §4.5 generate_id).
func New(cfg Config, cb Callbacks, logger *log.Logger) (*MAC, error) {
	cfg = cfg.withDefaults()
	if cb.TX == nil || cb.RX == nil {
		return nil, kerr.Wrap(kerr.InvalidArg, errMissingCallback("TX/RX"))
	}
	if cb.GenID == nil {
		return nil, kerr.Wrap(kerr.InvalidArg, errMissingCallback("GenID"))
	}
	if cb.Time == nil {
		cb.Time = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}

	m := &MAC{
		cfg:     cfg,
		cb:      cb,
		log:     logger,
		localID: cb.GenID(),
		peers:   newPeerTable(),
		rx:      make(map[uint64]*reassembly),
	}
	return m, nil
}

type errMissingCallback string

func (e errMissingCallback) Error() string { return "rfnet: missing callback: " + string(e) }

// LocalID returns the id obtained from GenID at construction.
func (m *MAC) LocalID() uint64 {
	return m.localID
}

// IsTXFree reports whether Send would accept a new payload right now
// (spec §4.5 is_tx_free).
func (m *MAC) IsTXFree() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.txBusy
}

// Send queues data for transmission, fragmenting it across slots as Update
// runs. Returns kerr.NotReady if a payload is already in flight
// (spec §3 invariant: at most one in-flight payload).
func (m *MAC) Send(data []byte) error {
	if len(data) == 0 {
		return kerr.New(kerr.InvalidArg)
	}
	if len(data) > maxReassemblyLen {
		return kerr.New(kerr.InvalidArg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.txBusy {
		return kerr.New(kerr.NotReady)
	}

	m.txPending = append([]byte(nil), data...)
	m.txMsgID++
	m.txNextFrag = 0
	m.txFragCount = (len(data) + fragPayloadMax - 1) / fragPayloadMax
	m.txBusy = true
	return nil
}

// Update is one cooperative MAC tick (spec §4.5): it may issue zero or one
// TX (a fragment or a beacon) and polls RX once.
func (m *MAC) Update(ctx context.Context) {
	now := m.cb.Time()

	m.mu.Lock()
	m.peers.ExpireStale(now, 8*m.cfg.BeaconInterval)
	peers := m.peers.Snapshot()
	m.mu.Unlock()

	if m.ownsSlot(now, peers) {
		if m.maybeSendFragment(ctx) {
			// one tx per update, per spec §4.5
		} else if m.maybeSendBeacon(ctx, now) {
			// beacon sent instead
		}
	}

	m.pollReceive(ctx)
}

// ownsSlot derives slot ownership from the local node id and the observed
// peer set (spec §4.5): peers (including self) are ordered by node id, and
// the current slot index (time / (slot+gap)) modulo the participant count
// selects whose turn it is.
func (m *MAC) ownsSlot(now time.Time, peers []PeerEntry) bool {
	ids := make([]uint64, 0, len(peers)+1)
	ids = append(ids, m.localID)
	for _, p := range peers {
		ids = append(ids, p.NodeID)
	}
	sortUint64s(ids)

	cycle := m.cfg.SlotDuration + m.cfg.GapDuration
	if cycle <= 0 {
		return true
	}
	slot := int((now.UnixNano() / cycle.Nanoseconds()) % int64(len(ids)))
	return ids[slot] == m.localID
}

func sortUint64s(ids []uint64) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

func (m *MAC) maybeSendFragment(ctx context.Context) bool {
	m.mu.Lock()
	if !m.txBusy || m.txNextFrag >= m.txFragCount {
		m.mu.Unlock()
		return false
	}
	idx := m.txNextFrag
	start := idx * fragPayloadMax
	end := start + fragPayloadMax
	if end > len(m.txPending) {
		end = len(m.txPending)
	}
	chunk := m.txPending[start:end]
	n := m.encodeFragment(m.scratch[:], m.txMsgID, idx, m.txFragCount, chunk)
	m.mu.Unlock()

	if m.cb.TX(ctx, m.scratch[:n]) < 0 {
		return true // transient transport error; retry same fragment next tick
	}

	m.mu.Lock()
	m.txNextFrag++
	m.stats.FragmentsSent++
	done := m.txNextFrag >= m.txFragCount
	if done {
		m.txBusy = false
		m.stats.FramesSent++
	}
	m.mu.Unlock()

	if done && m.cb.OnSend != nil {
		m.cb.OnSend()
	}
	return true
}

func (m *MAC) maybeSendBeacon(ctx context.Context, now time.Time) bool {
	m.mu.Lock()
	if now.Sub(m.lastBeacon) < m.cfg.BeaconInterval {
		m.mu.Unlock()
		return false
	}
	m.lastBeacon = now
	n := m.encodeBeacon(m.scratch[:])
	m.mu.Unlock()

	if m.cb.TX(ctx, m.scratch[:n]) >= 0 {
		m.mu.Lock()
		m.stats.BeaconsSent++
		m.mu.Unlock()
	}
	return true
}

func (m *MAC) pollReceive(ctx context.Context) {
	var buf [airPacketMaxLen]byte
	n := m.cb.RX(ctx, buf[:])
	if n <= 0 {
		return
	}
	m.handlePacket(buf[:n])
}

func (m *MAC) handlePacket(pkt []byte) {
	if len(pkt) < airHeaderLen {
		return
	}
	pattern := binary.BigEndian.Uint16(pkt[0:2])
	if pattern != m.cfg.PacketPattern {
		return
	}
	typ := pkt[2]
	srcID := binary.BigEndian.Uint64(pkt[3:11])

	m.mu.Lock()
	m.peers.Touch(srcID, m.cb.Time())
	m.mu.Unlock()

	switch typ {
	case pktBeacon:
		m.mu.Lock()
		m.stats.BeaconsReceived++
		m.mu.Unlock()
	case pktFragment:
		m.handleFragment(srcID, pkt[airHeaderLen:])
	}
}

func (m *MAC) handleFragment(srcID uint64, rest []byte) {
	if len(rest) < 4 {
		return
	}
	msgID, fragIndex, fragCount, payloadLen := rest[0], rest[1], rest[2], rest[3]
	rest = rest[4:]
	if int(payloadLen) > len(rest) {
		return
	}
	payload := rest[:payloadLen]

	m.mu.Lock()
	r := m.rx[srcID]
	if r == nil || r.msgID != msgID {
		r = &reassembly{
			msgID:    msgID,
			total:    int(fragCount),
			have:     make([]bool, fragCount),
			fragSize: fragPayloadMax,
			data:     make([]byte, int(fragCount)*fragPayloadMax),
		}
		m.rx[srcID] = r
	}
	if int(fragIndex) >= r.total || r.have[fragIndex] {
		m.mu.Unlock()
		return
	}
	copy(r.data[int(fragIndex)*fragPayloadMax:], payload)
	if int(fragIndex) == r.total-1 {
		r.lastLen = len(payload)
	}
	r.have[fragIndex] = true
	r.haveN++
	m.stats.FragmentsRecv++

	complete := r.haveN == r.total
	var full []byte
	if complete {
		full = r.data[:(r.total-1)*fragPayloadMax+r.lastLen]
		delete(m.rx, srcID)
		m.stats.FramesReceived++
	}
	m.mu.Unlock()

	if complete && m.cb.OnReceive != nil {
		m.cb.OnReceive(full)
	}
}

func (m *MAC) encodeBeacon(dst []byte) int {
	binary.BigEndian.PutUint16(dst[0:2], m.cfg.PacketPattern)
	dst[2] = pktBeacon
	binary.BigEndian.PutUint64(dst[3:11], m.localID)
	return 11
}

func (m *MAC) encodeFragment(dst []byte, msgID byte, fragIndex, fragCount int, payload []byte) int {
	binary.BigEndian.PutUint16(dst[0:2], m.cfg.PacketPattern)
	dst[2] = pktFragment
	binary.BigEndian.PutUint64(dst[3:11], m.localID)
	dst[11] = msgID
	dst[12] = byte(fragIndex)
	dst[13] = byte(fragCount)
	dst[14] = byte(len(payload))
	copy(dst[15:], payload)
	return 15 + len(payload)
}

// Peers returns a snapshot of the current peer table.
func (m *MAC) Peers() []PeerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peers.Snapshot()
}

// StatsSnapshot returns a copy of the running counters.
func (m *MAC) StatsSnapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
