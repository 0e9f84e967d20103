// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gossip defines the contract the block-production loop holds
// against the P2P overlay: pub/sub topics for blocks, transactions,
// receipts and VDF proofs, plus the topology feed external UIs consume.
// The overlay implementation itself (DHT, relay, transport) is out of
// scope for this core; Overlay is the seam the core programs against.
package gossip

import (
	"context"
	"strconv"

	"github.com/centichain/node/internal/chainmodel"
)

// Topic names the overlay's pub/sub channels.
type Topic string

// ShardBlocksTopic returns the per-shard block broadcast topic.
func ShardBlocksTopic(shard uint16) Topic {
	return Topic(topicPrefix("blocks", shard))
}

// ShardTxsTopic returns the per-shard transaction broadcast topic.
func ShardTxsTopic(shard uint16) Topic {
	return Topic(topicPrefix("txs", shard))
}

const (
	ReceiptsTopic  Topic = "centichain-receipts"
	VDFProofsTopic Topic = "centichain-vdf-proofs"
	TopologyTopic  Topic = "centichain-topology"
)

func topicPrefix(kind string, shard uint16) string {
	return "centichain-shard-" + strconv.Itoa(int(shard)) + "-" + kind
}

// TopologyEvent reports a connectivity change for UI consumption. Nothing
// in the core consumes this internally; it exists purely as the outbound
// contract the desktop UI subscribes to.
type TopologyEvent struct {
	Source      string   `json:"source" cbor:"source"`
	Connections []string `json:"connections" cbor:"connections"`
	Timestamp   uint64   `json:"timestamp" cbor:"timestamp"`
}

// Overlay is the P2P collaborator the block-production loop depends on.
// Publishing is best-effort and non-blocking from the caller's
// perspective; backpressure and channel capacities are the overlay's
// concern (block: 100, tx: 1000, receipt: 1000, per §5).
type Overlay interface {
	// RelayConnected reports whether the bootstrap relay is currently
	// reachable.
	RelayConnected() bool

	// ConnectedPeers returns the peer ids of every non-relay peer
	// currently connected.
	ConnectedPeers() []string

	PublishBlock(ctx context.Context, shard uint16, block chainmodel.Block) error
	PublishTransaction(ctx context.Context, shard uint16, tx chainmodel.Transaction) error
	PublishReceipt(ctx context.Context, receipt chainmodel.Receipt) error
	PublishVDFProof(ctx context.Context, msg chainmodel.VdfProofMessage) error

	// Blocks delivers blocks received from any peer on any shard topic
	// this node subscribes to.
	Blocks() <-chan chainmodel.Block
	// Transactions delivers transactions received from peers.
	Transactions() <-chan chainmodel.Transaction
	// VDFProofs delivers Sybil-ticket proofs broadcast by peers on
	// centichain-vdf-proofs, for the heartbeat task to verify.
	VDFProofs() <-chan chainmodel.VdfProofMessage

	// Topology emits connectivity snapshots for UI consumption.
	Topology() <-chan TopologyEvent

	// RequestSync asks peer to send sync messages starting at the
	// node's current height.
	RequestSync(ctx context.Context, peer string) error
}
