// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry tracks validator identities, their VDF-verified and
// quarantine-based eligibility for leadership, and the deterministic
// per-shard, per-slot leader election built on top of it.
package registry

// NodeState is a single validator's record in the registry.
type NodeState struct {
	PeerID      string
	JoinTime    uint64
	TrustScore  float64
	VDFProof    string
	IsVerified  bool
	IsActive    bool
	ActivatedAt uint64
	hasActivated bool
	MissedSlots uint64
	Addresses   []string
}

// newNodeState creates a freshly-sighted node: trust 0.1, unverified,
// inactive.
func newNodeState(peerID string, now uint64) *NodeState {
	return &NodeState{
		PeerID:     peerID,
		JoinTime:   now,
		TrustScore: 0.1,
	}
}

// Uptime returns seconds elapsed since the node was first sighted.
func (n *NodeState) Uptime(now uint64) uint64 {
	if now > n.JoinTime {
		return now - n.JoinTime
	}
	return 0
}

// activate stamps ActivatedAt and flips IsActive. Idempotent: a no-op if
// the node was already activated.
func (n *NodeState) activate(now uint64) {
	if n.hasActivated {
		return
	}
	n.hasActivated = true
	n.ActivatedAt = now
	n.IsActive = true
}

// demote force-deactivates a node whose trust has collapsed.
func (n *NodeState) demote() {
	n.IsActive = false
	n.hasActivated = false
	n.ActivatedAt = 0
}

// Activated reports whether activate has ever stamped this node.
func (n *NodeState) Activated() bool {
	return n.hasActivated
}
