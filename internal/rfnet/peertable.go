package rfnet

import "time"

// PeerTableCapacity is the mesh MAC's fixed peer table size (spec §3).
const PeerTableCapacity = 16

// PeerRole/PeerState flags (spec §3 "Peer entry": role/state flags).
const (
	PeerRoleNone   byte = 0
	PeerRolePeer   byte = 1 << 0
	PeerStateStale byte = 1 << 1
)

// PeerEntry is the fixed-size peer record of spec §3.
type PeerEntry struct {
	NodeID   uint64
	LastSeen time.Time
	Flags    byte
}

// peerTable is the MAC's statically sized peer table. Overflow evicts the
// least-recently-seen entry (spec §9 "Peer table overflow": the source
// leaves eviction undocumented; this spec assumes LRU).
//
// Invariant (spec §3): the table is monotonic in (node_id -> last_seen);
// entries never alias — refreshing an existing node id updates its
// LastSeen in place rather than appending a second entry.
type peerTable struct {
	entries []PeerEntry
}

func newPeerTable() *peerTable {
	return &peerTable{entries: make([]PeerEntry, 0, PeerTableCapacity)}
}

// Touch records a sighting of nodeID at now, refreshing an existing entry or
// inserting a new one, evicting the oldest entry first if the table is full.
func (t *peerTable) Touch(nodeID uint64, now time.Time) {
	for i := range t.entries {
		if t.entries[i].NodeID == nodeID {
			t.entries[i].LastSeen = now
			t.entries[i].Flags &^= PeerStateStale
			return
		}
	}
	if len(t.entries) >= PeerTableCapacity {
		t.evictOldest()
	}
	t.entries = append(t.entries, PeerEntry{NodeID: nodeID, LastSeen: now, Flags: PeerRolePeer})
}

func (t *peerTable) evictOldest() {
	oldest := 0
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i].LastSeen.Before(t.entries[oldest].LastSeen) {
			oldest = i
		}
	}
	t.entries = append(t.entries[:oldest], t.entries[oldest+1:]...)
}

// ExpireStale marks entries not seen within maxAge as stale, and prunes any
// entry that has been stale for a further maxAge beyond that (an
// implementation-defined multiple of beacon_interval, per spec §4.5).
func (t *peerTable) ExpireStale(now time.Time, maxAge time.Duration) {
	live := t.entries[:0]
	for _, e := range t.entries {
		age := now.Sub(e.LastSeen)
		switch {
		case age > 2*maxAge:
			continue // drop entirely
		case age > maxAge:
			e.Flags |= PeerStateStale
			live = append(live, e)
		default:
			live = append(live, e)
		}
	}
	t.entries = live
}

// Snapshot returns a copy of the current peer set in table order (not
// sorted); ownsSlot sorts the ids itself before deriving slot ownership.
func (t *peerTable) Snapshot() []PeerEntry {
	out := make([]PeerEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *peerTable) Len() int { return len(t.entries) }
