package registry

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/centichain/node/internal/vdf"
	"github.com/pkg/errors"
)

// Time parameters (§4.1).
const (
	SlotDuration     uint64 = 2
	EpochDuration    uint64 = 600
	SlotsPerEpoch           = EpochDuration / SlotDuration
	ValidatorsPerShard uint64 = 50

	minTrustScore = 0.01
	maxTrustScore = 1.0
)

// Registry is the mutual-exclusion-protected map of known validators, the
// local peer's identity, and the quarantine schedule derived from
// population size. It is the sole owner of validator state; leader
// election operates on a sorted copy taken under lock and released before
// any caller does further work, so the lock is never held across I/O or a
// VDF solve.
type Registry struct {
	mu          sync.RWMutex
	nodes       map[string]*NodeState
	localPeerID string
	relayPeerID string
}

// New returns an empty registry. relayPeerID, if non-empty, is excluded
// from every candidate list: the bootstrap relay forwards traffic but
// never proposes blocks.
func New(relayPeerID string) *Registry {
	return &Registry{
		nodes:       make(map[string]*NodeState),
		relayPeerID: relayPeerID,
	}
}

// SetLocalPeerID records this node's own identity and bootstraps it into
// the registry, pre-verified and fully trusted, so solo mining can begin
// without waiting on the Sybil ticket.
func (r *Registry) SetLocalPeerID(peerID string, now uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.localPeerID = peerID
	if _, ok := r.nodes[peerID]; !ok {
		node := newNodeState(peerID, now)
		node.IsVerified = true
		node.TrustScore = maxTrustScore
		r.nodes[peerID] = node
	}
}

// RegisterNode records a newly-sighted peer if it isn't already known.
func (r *Registry) RegisterNode(peerID string, now uint64) {
	if peerID == r.relayPeerID {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[peerID]; !ok {
		r.nodes[peerID] = newNodeState(peerID, now)
	}
}

// Count returns the number of known validators, including the relay if it
// was ever registered before relayPeerID was configured (it shouldn't be).
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// Node returns a copy of a validator's state, or false if unknown.
func (r *Registry) Node(peerID string) (NodeState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[peerID]
	if !ok {
		return NodeState{}, false
	}
	return *n, true
}

// QuarantineDuration returns the adaptive Proof-of-Patience waiting period
// for the current validator population.
func (r *Registry) QuarantineDuration() uint64 {
	r.mu.RLock()
	count := uint64(len(r.nodes))
	r.mu.RUnlock()

	if count <= 1 {
		return 300
	}
	d := 300 + 3600*count
	if d > 72*3600 {
		return 72 * 3600
	}
	return d
}

// ActiveShards returns max(1, |nodes| / VALIDATORS_PER_SHARD).
func (r *Registry) ActiveShards() uint16 {
	r.mu.RLock()
	count := uint64(len(r.nodes))
	r.mu.RUnlock()

	if count < ValidatorsPerShard {
		return 1
	}
	return uint16(count / ValidatorsPerShard)
}

// AssignedShard deterministically maps peerID to a shard for the given
// epoch: (SHA-256(peerID || epoch_le)[0:2] as u16) mod activeShards.
func (r *Registry) AssignedShard(peerID string, epoch uint64) uint16 {
	active := r.ActiveShards()
	h := sha256.New()
	h.Write([]byte(peerID))
	var epochLE [8]byte
	binary.LittleEndian.PutUint64(epochLE[:], epoch)
	h.Write(epochLE[:])
	sum := h.Sum(nil)
	hashVal := uint16(sum[0])<<8 | uint16(sum[1])
	return hashVal % active
}

// CurrentEpoch derives the wall-clock epoch index for now.
func CurrentEpoch(now uint64) uint64 {
	return now / EpochDuration
}

// CurrentSlot derives the wall-clock slot index for now.
func CurrentSlot(now uint64) uint64 {
	return now / SlotDuration
}

// epochForSlot is the epoch used in leader derivation: slot / slots-per-
// epoch, not wall-clock epoch, so shard assignment is stable for every
// slot inside an epoch even if computed slightly before/after its wall
// clock boundary.
func epochForSlot(slot uint64) uint64 {
	return slot / SlotsPerEpoch
}

// VDFChallenge returns the Sybil-ticket challenge for a peer:
// hex(SHA-256(peer_id || "Patience")).
func (r *Registry) VDFChallenge(peerID string) string {
	return vdf.PeerChallenge(peerID)
}

// IsEligibleForLeadership reports whether peerID may be selected as a slot
// leader right now.
func (r *Registry) IsEligibleForLeadership(peerID string, now uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isEligibleLocked(peerID, now)
}

func (r *Registry) isEligibleLocked(peerID string, now uint64) bool {
	node, ok := r.nodes[peerID]
	if !ok {
		return false
	}

	// Solo bootstrap: the only known node needs no preconditions.
	if len(r.nodes) == 1 {
		return true
	}

	// Grandfather clause: once activated, eligibility survives rising
	// quarantine requirements as long as trust hasn't collapsed.
	if node.Activated() && node.TrustScore >= minTrustScore {
		return true
	}

	quarantine := r.quarantineLocked()
	return node.IsVerified && node.Uptime(now) >= quarantine && node.TrustScore >= minTrustScore
}

func (r *Registry) quarantineLocked() uint64 {
	count := uint64(len(r.nodes))
	if count <= 1 {
		return 300
	}
	d := 300 + 3600*count
	if d > 72*3600 {
		return 72 * 3600
	}
	return d
}

// UpdateActiveStatus runs the promotion/demotion pass over every node.
// Invoked once per production tick.
func (r *Registry) UpdateActiveStatus(now uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	solo := len(r.nodes) == 1
	quarantine := r.quarantineLocked()
	for _, node := range r.nodes {
		if node.TrustScore < minTrustScore {
			node.demote()
			continue
		}
		if node.Activated() {
			continue
		}
		if solo || (node.IsVerified && node.Uptime(now) >= quarantine) {
			node.activate(now)
		}
	}
}

// VerifyPeer checks a Sybil-ticket proof against the peer's challenge and,
// on success, marks the node verified.
func (r *Registry) VerifyPeer(peerID, proof string, engine *vdf.Engine) bool {
	challenge := r.VDFChallenge(peerID)
	if !engine.Verify([]byte(challenge), proof) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[peerID]
	if !ok {
		return false
	}
	node.IsVerified = true
	node.VDFProof = proof
	return true
}

// SlashNode halves trust, increments the missed-slot counter, and force-
// demotes if trust collapses below the floor.
func (r *Registry) SlashNode(peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[peerID]
	if !ok {
		return
	}
	node.MissedSlots++
	node.TrustScore *= 0.5
	if node.TrustScore < minTrustScore {
		node.TrustScore = minTrustScore
		node.demote()
	}
}

// RewardNode nudges trust up by 10%, capped at 1.0.
func (r *Registry) RewardNode(peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[peerID]
	if !ok {
		return
	}
	node.TrustScore *= 1.1
	if node.TrustScore > maxTrustScore {
		node.TrustScore = maxTrustScore
	}
}

// ForceActivate immediately verifies and activates peerID, bypassing
// quarantine and eligibility checks. Used only when a node is proceeding
// solo: at genesis creation and when resuming an existing chain with no
// peers in sight (§4.3 Phase B).
func (r *Registry) ForceActivate(peerID string, now uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[peerID]
	if !ok {
		node = newNodeState(peerID, now)
		r.nodes[peerID] = node
	}
	node.IsVerified = true
	node.activate(now)
}

// MarkPeerActive grandfathers a foreign block's author into activation and
// nudges their trust, registering them first if unknown. Called on every
// successfully validated foreign block.
func (r *Registry) MarkPeerActive(peerID string, now uint64) {
	if peerID == r.relayPeerID {
		return
	}
	r.mu.Lock()
	node, ok := r.nodes[peerID]
	if !ok {
		node = newNodeState(peerID, now)
		r.nodes[peerID] = node
	}
	node.activate(now)
	node.TrustScore *= 1.1
	if node.TrustScore > maxTrustScore {
		node.TrustScore = maxTrustScore
	}
	r.mu.Unlock()
}

// ShardLeader deterministically elects the leader for (shard, slot).
// Candidates are the nodes assigned to shard under the slot's epoch and
// eligible for leadership; ties are broken by a hash of (shard, epoch,
// slot), so two honest nodes with identical registry contents compute the
// same leader.
func (r *Registry) ShardLeader(shard uint16, slot uint64) (string, bool) {
	epoch := epochForSlot(slot)

	r.mu.RLock()
	candidates := make([]string, 0, len(r.nodes))
	for peerID := range r.nodes {
		if r.AssignedShard(peerID, epoch) == shard && r.isEligibleLocked(peerID, slot*SlotDuration) {
			candidates = append(candidates, peerID)
		}
	}
	if len(candidates) == 0 && len(r.nodes) < 2 {
		for peerID := range r.nodes {
			candidates = append(candidates, peerID)
		}
	}
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)

	rnd := electionRand(shard, epoch, slot)
	return candidates[rnd%uint64(len(candidates))], true
}

// electionRand computes the tie-break value r = u64_le(SHA-256(shard_be ||
// epoch_be || slot_be)[0:8]).
func electionRand(shard uint16, epoch, slot uint64) uint64 {
	var buf [18]byte
	binary.BigEndian.PutUint16(buf[0:2], shard)
	binary.BigEndian.PutUint64(buf[2:10], epoch)
	binary.BigEndian.PutUint64(buf[10:18], slot)
	sum := sha256.Sum256(buf[:])
	return binary.LittleEndian.Uint64(sum[0:8])
}

// SlashMissedSlots slashes the expected leader of every slot in
// [startSlot, endSlot] inclusive and returns who was slashed.
func (r *Registry) SlashMissedSlots(startSlot, endSlot uint64, shard uint16) []string {
	if startSlot > endSlot {
		return nil
	}
	var slashed []string
	for slot := startSlot; slot <= endSlot; slot++ {
		leader, ok := r.ShardLeader(shard, slot)
		if !ok {
			continue
		}
		r.SlashNode(leader)
		slashed = append(slashed, leader)
	}
	return slashed
}

// FutureLeader is one entry of a FutureLeaders preview.
type FutureLeader struct {
	Slot   uint64
	Leader string
	Ok     bool
}

// FutureLeaders previews the leader (or none) of the next count slots
// starting at startSlot.
func (r *Registry) FutureLeaders(startSlot, count uint64, shard uint16) []FutureLeader {
	out := make([]FutureLeader, 0, count)
	for i := uint64(0); i < count; i++ {
		slot := startSlot + i
		leader, ok := r.ShardLeader(shard, slot)
		out = append(out, FutureLeader{Slot: slot, Leader: leader, Ok: ok})
	}
	return out
}

// ErrUnknownPeer identifies a peer the registry has never seen. NodeStatus
// does not return it: an unknown peer is reported as StateConnecting.
var ErrUnknownPeer = errors.New("registry: unknown peer")
