// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gossipmock provides a hand-written Overlay fake for tests that
// exercise the block-production loop without a real P2P stack.
package gossipmock

import (
	"context"
	"sync"

	"github.com/centichain/node/internal/chainmodel"
	"github.com/centichain/node/internal/gossip"
)

// Overlay is an in-memory gossip.Overlay fake. Published blocks and
// transactions are recorded for assertions and, unless Loopback is false,
// also delivered to the Blocks()/Transactions() channels as if another
// peer had sent them back.
type Overlay struct {
	mu sync.Mutex

	Relay    bool
	Peers    []string
	Loopback bool

	PublishedBlocks       []chainmodel.Block
	PublishedTransactions []chainmodel.Transaction
	PublishedReceipts     []chainmodel.Receipt
	PublishedVDFProofs    []chainmodel.VdfProofMessage
	SyncRequests          []string

	blocks       chan chainmodel.Block
	transactions chan chainmodel.Transaction
	vdfProofs    chan chainmodel.VdfProofMessage
	topology     chan gossip.TopologyEvent
}

// New returns a ready-to-use Overlay fake.
func New() *Overlay {
	return &Overlay{
		blocks:       make(chan chainmodel.Block, 100),
		transactions: make(chan chainmodel.Transaction, 1000),
		vdfProofs:    make(chan chainmodel.VdfProofMessage, 100),
		topology:     make(chan gossip.TopologyEvent, 10),
	}
}

func (o *Overlay) RelayConnected() bool { return o.Relay }
func (o *Overlay) ConnectedPeers() []string { return o.Peers }

func (o *Overlay) PublishBlock(_ context.Context, _ uint16, block chainmodel.Block) error {
	o.mu.Lock()
	o.PublishedBlocks = append(o.PublishedBlocks, block)
	o.mu.Unlock()
	if o.Loopback {
		o.blocks <- block
	}
	return nil
}

func (o *Overlay) PublishTransaction(_ context.Context, _ uint16, tx chainmodel.Transaction) error {
	o.mu.Lock()
	o.PublishedTransactions = append(o.PublishedTransactions, tx)
	o.mu.Unlock()
	if o.Loopback {
		o.transactions <- tx
	}
	return nil
}

func (o *Overlay) PublishReceipt(_ context.Context, r chainmodel.Receipt) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.PublishedReceipts = append(o.PublishedReceipts, r)
	return nil
}

func (o *Overlay) PublishVDFProof(_ context.Context, msg chainmodel.VdfProofMessage) error {
	o.mu.Lock()
	o.PublishedVDFProofs = append(o.PublishedVDFProofs, msg)
	o.mu.Unlock()
	if o.Loopback {
		o.vdfProofs <- msg
	}
	return nil
}

func (o *Overlay) Blocks() <-chan chainmodel.Block             { return o.blocks }
func (o *Overlay) Transactions() <-chan chainmodel.Transaction { return o.transactions }
func (o *Overlay) VDFProofs() <-chan chainmodel.VdfProofMessage { return o.vdfProofs }
func (o *Overlay) Topology() <-chan gossip.TopologyEvent       { return o.topology }

func (o *Overlay) RequestSync(_ context.Context, peer string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.SyncRequests = append(o.SyncRequests, peer)
	return nil
}

// DeliverBlock injects block as though it arrived from a peer.
func (o *Overlay) DeliverBlock(block chainmodel.Block) {
	o.blocks <- block
}

// DeliverTransaction injects tx as though it arrived from a peer.
func (o *Overlay) DeliverTransaction(tx chainmodel.Transaction) {
	o.transactions <- tx
}

// DeliverVDFProof injects msg as though it arrived from a peer.
func (o *Overlay) DeliverVDFProof(msg chainmodel.VdfProofMessage) {
	o.vdfProofs <- msg
}

// PublishedVDFProofCount returns the number of proofs published so far,
// safe to poll from a test goroutine racing a producer under Run.
func (o *Overlay) PublishedVDFProofCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.PublishedVDFProofs)
}

var _ gossip.Overlay = (*Overlay)(nil)
