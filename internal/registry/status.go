package registry

import "sort"

// ConsensusState names the coarse-grained state a status query reports for
// a peer: not yet known, waiting out patience, queued behind other
// leaders, or the active slot leader.
type ConsensusState string

const (
	StateConnecting ConsensusState = "Connecting"
	StatePatience   ConsensusState = "Patience"
	StateQueue      ConsensusState = "Queue"
	StateLeader     ConsensusState = "Leader"
)

// NodeConsensusStatus summarizes a peer's standing for UI/status surfaces
// outside the core (see spec.md's out-of-scope RPC façade).
type NodeConsensusStatus struct {
	State            ConsensusState
	QueuePosition    uint32
	PatienceProgress float32
	RemainingSeconds uint64
	ShardID          uint16
	IsSlotLeader     bool
}

// NodeStatus reports peerID's current standing given now.
func (r *Registry) NodeStatus(peerID string, now uint64) NodeConsensusStatus {
	r.mu.RLock()
	node, ok := r.nodes[peerID]
	if !ok {
		r.mu.RUnlock()
		return NodeConsensusStatus{State: StateConnecting}
	}
	uptime := node.Uptime(now)
	quarantine := r.quarantineLocked()
	eligible := r.isEligibleLocked(peerID, now)
	r.mu.RUnlock()

	slot := CurrentSlot(now)
	epoch := CurrentEpoch(now)
	shard := r.AssignedShard(peerID, epoch)
	leader, _ := r.ShardLeader(shard, slot)

	if leader == peerID {
		return NodeConsensusStatus{
			State: StateLeader, PatienceProgress: 1.0, ShardID: shard, IsSlotLeader: true,
		}
	}

	if !eligible {
		progress := float32(1.0)
		if quarantine > 0 {
			progress = float32(uptime) / float32(quarantine)
			if progress > 1.0 {
				progress = 1.0
			}
		}
		remaining := uint64(0)
		if quarantine > uptime {
			remaining = quarantine - uptime
		}
		return NodeConsensusStatus{
			State: StatePatience, QueuePosition: 999, PatienceProgress: progress,
			RemainingSeconds: remaining, ShardID: shard,
		}
	}

	r.mu.RLock()
	candidates := make([]string, 0, len(r.nodes))
	for pid := range r.nodes {
		if r.AssignedShard(pid, epoch) == shard && r.isEligibleLocked(pid, now) {
			candidates = append(candidates, pid)
		}
	}
	r.mu.RUnlock()
	sort.Strings(candidates)

	total := len(candidates)
	if total == 0 {
		return NodeConsensusStatus{State: StateQueue, ShardID: shard, PatienceProgress: 1.0}
	}
	myIndex := 0
	for i, pid := range candidates {
		if pid == peerID {
			myIndex = i
			break
		}
	}
	currentMod := int(slot) % total
	distance := myIndex - currentMod
	if distance < 0 {
		distance += total
	}

	return NodeConsensusStatus{
		State:            StateQueue,
		QueuePosition:    uint32(distance),
		PatienceProgress: 1.0,
		RemainingSeconds: uint64(distance) * SlotDuration,
		ShardID:          shard,
	}
}
