// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package producer implements the node's block-production controller: a
// three-phase state machine (relay connection, discovery/sync/genesis,
// production loop) plus the foreign-block and foreign-transaction ingest
// paths that run alongside it.
package producer

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/centichain/node/internal/chainmodel"
	"github.com/centichain/node/internal/config"
	"github.com/centichain/node/internal/gossip"
	"github.com/centichain/node/internal/mempool"
	"github.com/centichain/node/internal/nodemetrics"
	"github.com/centichain/node/internal/registry"
	"github.com/centichain/node/internal/storage"
	"github.com/centichain/node/internal/tokenomics"
	"github.com/centichain/node/internal/vdf"
	"github.com/centichain/node/internal/vdfpool"
	"github.com/centichain/node/log"
	"golang.org/x/sync/errgroup"
)

// txPerBlockApproxBytes is the flat per-transaction size the block-filling
// loop charges against MaxBlockSizeBytes, per §4.3 step 10.
const txPerBlockApproxBytes = 300

// maxSyncWait bounds how long Phase B waits for the local chain to catch up
// to peers before giving up and falling through to solo continuation.
// Declared as a var (not const) so tests can shrink it.
var maxSyncWait = 300 * time.Second

// peerDiscoveryWait bounds how long Phase B waits for any peer to appear
// before concluding the node is alone and creating genesis.
var peerDiscoveryWait = 60 * time.Second

// relayConnectTimeout is Phase A's single-attempt budget before it starts
// logging and retrying.
var relayConnectTimeout = 10 * time.Second

// vdfHeartbeatInterval is how often the heartbeat task rebroadcasts this
// node's already-solved Sybil ticket on centichain-vdf-proofs. The ticket
// itself is solved once, not re-solved on every tick.
var vdfHeartbeatInterval = 30 * time.Second

// Producer drives block production for a single node. It owns no network
// transport of its own; Overlay is the seam to the P2P stack.
type Producer struct {
	cfg     config.Node
	peerID  string
	storage *storage.Storage
	mempool *mempool.Mempool
	registry *registry.Registry
	overlay gossip.Overlay
	vdfPool *vdfpool.Pool
	metrics *nodemetrics.Node
	log     log.Logger

	// Clock returns the current unix time. Overridden in tests.
	Clock func() uint64

	synced           atomic.Bool
	pruned           atomic.Bool
	lastProductionAt atomic.Uint64
}

// New returns a Producer ready to Run.
func New(
	cfg config.Node,
	peerID string,
	st *storage.Storage,
	mp *mempool.Mempool,
	reg *registry.Registry,
	overlay gossip.Overlay,
	pool *vdfpool.Pool,
	m *nodemetrics.Node,
	logger log.Logger,
) *Producer {
	return &Producer{
		cfg:      cfg,
		peerID:   peerID,
		storage:  st,
		mempool:  mp,
		registry: reg,
		overlay:  overlay,
		vdfPool:  pool,
		metrics:  m,
		log:      logger,
		Clock:    func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// Run executes Phase A, Phase B, then blocks running the production loop
// alongside the ingest loops until ctx is canceled.
func (p *Producer) Run(ctx context.Context) error {
	p.registry.SetLocalPeerID(p.peerID, p.Clock())

	if err := p.awaitRelay(ctx); err != nil {
		return err
	}
	if err := p.discoverSyncOrGenesis(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.ingestBlocksLoop(gctx) })
	g.Go(func() error { return p.ingestTransactionsLoop(gctx) })
	g.Go(func() error { return p.productionLoop(gctx) })
	g.Go(func() error { return p.vdfHeartbeatLoop(gctx) })
	return g.Wait()
}

// awaitRelay is Phase A: wait for the overlay to report a reachable relay,
// logging and retrying every 5s past the initial 10s budget. A node
// configured without a relay address runs solo and skips this phase.
func (p *Producer) awaitRelay(ctx context.Context) error {
	if p.cfg.RelayAddr == "" {
		return nil
	}

	deadline := time.NewTimer(relayConnectTimeout)
	defer deadline.Stop()
	poll := time.NewTicker(250 * time.Millisecond)
	defer poll.Stop()

	for {
		if p.overlay.RelayConnected() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			p.log.Warn("relay unreachable after initial timeout, retrying")
			status := time.NewTicker(5 * time.Second)
			defer status.Stop()
			for {
				if p.overlay.RelayConnected() {
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-status.C:
					p.log.Warn("still waiting for relay")
				case <-poll.C:
				}
			}
		case <-poll.C:
		}
	}
}

// discoverSyncOrGenesis is Phase B.
func (p *Producer) discoverSyncOrGenesis(ctx context.Context) error {
	peers := p.overlay.ConnectedPeers()
	total, err := p.storage.GetTotalBlocks()
	if err != nil {
		return err
	}

	switch {
	case len(peers) > 0:
		return p.syncWithPeers(ctx, peers)
	case total == 0:
		return p.waitForPeersOrGenesis(ctx)
	default:
		// Local chain exists, nobody around: solo continuation.
		p.synced.Store(true)
		p.registry.ForceActivate(p.peerID, p.Clock())
		return nil
	}
}

func (p *Producer) syncWithPeers(ctx context.Context, peers []string) error {
	for _, peer := range peers {
		if err := p.overlay.RequestSync(ctx, peer); err != nil {
			p.log.Warn("sync request failed", "peer", peer, "err", err)
		}
	}

	deadline := time.NewTimer(maxSyncWait)
	defer deadline.Stop()
	var firstSight time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			p.log.Warn("sync wait exceeded, continuing with local chain")
			p.synced.Store(true)
			return nil
		case block := <-p.overlay.Blocks():
			if firstSight.IsZero() {
				firstSight = time.Now()
			}
			if err := p.IngestBlock(block); err != nil {
				p.log.Debug("sync ingest rejected block", "index", block.Header.Index, "err", err)
			}
			genesis, err := p.storage.GetBlock(0)
			if err != nil {
				return err
			}
			if genesis != nil && !firstSight.IsZero() && time.Since(firstSight) >= 10*time.Second {
				p.synced.Store(true)
				return nil
			}
		}
	}
}

func (p *Producer) waitForPeersOrGenesis(ctx context.Context) error {
	deadline := time.NewTimer(peerDiscoveryWait)
	defer deadline.Stop()
	poll := time.NewTicker(2 * time.Second)
	defer poll.Stop()

	for {
		if peers := p.overlay.ConnectedPeers(); len(peers) > 0 {
			return p.syncWithPeers(ctx, peers)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return p.createGenesis()
		case <-poll.C:
		}
	}
}

// createGenesis mints GENESIS_SUPPLY to the local address at block 0 and
// force-activates this node so it can begin proposing immediately.
func (p *Producer) createGenesis() error {
	now := p.Clock()
	block := chainmodel.NewGenesisBlock(p.peerID, tokenomics.GenesisSupply, now, 100)
	engine := vdf.New(block.Header.VDFDifficulty)
	block.Header.VDFProof = engine.Solve([]byte(block.Header.ChallengeHash()))
	block.Header.Size = uint64(block.SerializedSize())

	if err := p.storage.SaveBlock(block); err != nil {
		return err
	}
	p.registry.ForceActivate(p.peerID, now)
	p.synced.Store(true)
	p.lastProductionAt.Store(now)
	return nil
}

// productionLoop is Phase C.
func (p *Producer) productionLoop(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		now := p.Clock()
		p.registry.UpdateActiveStatus(now)

		total, err := p.storage.GetTotalBlocks()
		if err != nil {
			p.log.Error("read chain height", "err", err)
			continue
		}
		if total > 1000 && total%300 == 0 {
			if _, err := p.storage.PruneHistory(1000); err != nil {
				p.log.Error("auto-prune failed", "err", err)
			} else {
				p.pruned.Store(true)
			}
		}

		if !p.synced.Load() {
			continue
		}

		if err := p.tryProduce(ctx, now); err != nil {
			p.log.Error("block production attempt failed", "err", err)
		}
	}
}

func (p *Producer) tryProduce(ctx context.Context, now uint64) error {
	slot := registry.CurrentSlot(now)
	epoch := registry.CurrentEpoch(now)
	myShard := p.registry.AssignedShard(p.peerID, epoch)
	leader, ok := p.registry.ShardLeader(myShard, slot)
	if !p.cfg.MiningEnabled || !ok || leader != p.peerID {
		return nil
	}

	// Slot gating: wait 1s into the slot for gossip to settle.
	if now%registry.SlotDuration < 1 {
		return nil
	}

	latest, err := p.latestBlock()
	if err != nil {
		return err
	}
	if latest != nil && latest.Header.Timestamp/registry.SlotDuration >= slot {
		return nil // a peer already produced for this slot
	}

	elapsed := now - p.lastProductionAt.Load()
	target := uint64(p.cfg.Consensus.TargetBlockTime.Seconds())
	if elapsed < target && p.mempool.Len() < 100 {
		return nil
	}

	block, receipts, minedIDs, err := p.assembleBlock(now, myShard, latest)
	if err != nil {
		return err
	}

	engine := vdf.New(block.Header.VDFDifficulty)
	proof, err := p.vdfPool.Solve(ctx, engine, []byte(block.Header.ChallengeHash()))
	if err != nil {
		return err
	}
	block.Header.VDFProof = proof
	block.Header.Size = uint64(block.SerializedSize())
	sealedHash := block.Hash()
	for i := range receipts {
		receipts[i].BlockHash = sealedHash
	}

	if latest != nil {
		prevSlot := latest.Header.Timestamp / registry.SlotDuration
		newSlot := block.Header.Timestamp / registry.SlotDuration
		if newSlot > prevSlot+1 {
			p.registry.SlashMissedSlots(prevSlot+1, newSlot-1, myShard)
		}
	}

	if err := p.storage.SaveBlock(block); err != nil {
		return err
	}
	if p.pruned.Load() {
		if _, err := p.storage.PruneHistory(2000); err != nil {
			p.log.Error("post-production prune failed", "err", err)
		}
	}

	p.lastProductionAt.Store(now)
	p.metrics.BlocksProduced.Inc()
	p.metrics.ChainHeight.Set(float64(block.Header.Index))

	if err := p.overlay.PublishBlock(ctx, myShard, block); err != nil {
		p.log.Warn("publish block failed", "err", err)
	}
	for _, r := range receipts {
		if err := p.overlay.PublishReceipt(ctx, r); err != nil {
			p.log.Warn("publish receipt failed", "err", err)
		}
	}
	if err := p.mempool.RemoveTransactions(minedIDs); err != nil {
		p.log.Warn("remove mined transactions", "err", err)
	}
	return nil
}

func (p *Producer) latestBlock() (*chainmodel.Block, error) {
	total, err := p.storage.GetTotalBlocks()
	if err != nil || total == 0 {
		return nil, err
	}
	return p.storage.GetBlock(total - 1)
}

func (p *Producer) assembleBlock(now uint64, shard uint16, latest *chainmodel.Block) (chainmodel.Block, []chainmodel.Receipt, []string, error) {
	targetIdx := uint64(0)
	prevHash := ""
	if latest != nil {
		targetIdx = latest.Header.Index + 1
		prevHash = latest.Hash()
	}

	blockReward := tokenomics.CalculateMiningReward(targetIdx)
	activeShards := p.registry.ActiveShards()
	epoch := registry.CurrentEpoch(now)

	pending := p.mempool.PendingTransactions()
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })

	maxTxs := p.cfg.Consensus.MaxTxsPerBlock
	maxBytes := int(p.cfg.Consensus.MaxBlockSizeBytes)

	var selected []chainmodel.Transaction
	var receipts []chainmodel.Receipt
	var totalFees uint64
	for _, tx := range pending {
		if tx.ShardID != shard {
			continue
		}
		if len(selected) == maxTxs {
			break
		}
		if (len(selected)+1)*txPerBlockApproxBytes > maxBytes {
			break
		}
		selected = append(selected, tx)
		totalFees += tokenomics.CalculateFee(tx.Amount)

		if receiverShard := chainmodel.ShardOf(tx.Receiver, epoch, activeShards); receiverShard != shard {
			receipts = append(receipts, chainmodel.NewPendingReceipt(tx, shard, receiverShard, ""))
		}
	}

	coinbase := chainmodel.NewCoinbase(targetIdx, p.peerID, blockReward, totalFees, now, shard)
	txs := make([]chainmodel.Transaction, 0, len(selected)+1)
	txs = append(txs, coinbase)
	txs = append(txs, selected...)

	minedIDs := make([]string, len(selected))
	for i, tx := range selected {
		minedIDs[i] = tx.ID
	}

	vdfDifficulty := vdf.SealingDifficulty(p.registry.Count())
	header := chainmodel.Header{
		Index:           targetIdx,
		Timestamp:       now,
		Author:          p.peerID,
		PreviousHash:    prevHash,
		VDFDifficulty:   vdfDifficulty,
		ShardID:         shard,
		Version:         chainmodel.HeaderVersion,
		TotalFees:       totalFees,
		BlockReward:     blockReward,
		TotalReward:     blockReward + totalFees,
		StartTimeWeight: chainmodel.StartTimeWeight,
	}
	block := chainmodel.Block{Header: header, Transactions: txs}
	block.Header.MerkleRoot = block.RecomputeMerkleRoot()
	return block, receipts, minedIDs, nil
}

// IngestBlock validates and appends a foreign block per §4.5.
func (p *Producer) IngestBlock(block chainmodel.Block) error {
	if !block.IsVDFValid(func(challenge []byte, proof string) bool {
		return vdf.New(block.Header.VDFDifficulty).Verify(challenge, proof)
	}) {
		return errInvalidVDF
	}

	existing, err := p.storage.GetBlock(block.Header.Index)
	if err != nil {
		return err
	}
	if existing != nil {
		return errDuplicateIndex
	}

	if err := p.storage.SaveBlock(block); err != nil {
		return err
	}
	p.registry.MarkPeerActive(block.Header.Author, p.Clock())

	ids := make([]string, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		if !tx.IsCoinbase() {
			ids = append(ids, tx.ID)
		}
	}
	if err := p.mempool.RemoveTransactions(ids); err != nil {
		p.log.Warn("remove ingested transactions from mempool", "err", err)
	}
	p.metrics.BlocksReceived.Inc()
	return nil
}

func (p *Producer) ingestBlocksLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block := <-p.overlay.Blocks():
			if err := p.IngestBlock(block); err != nil {
				p.log.Debug("rejected foreign block", "index", block.Header.Index, "err", err)
			}
		}
	}
}

func (p *Producer) ingestTransactionsLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tx := <-p.overlay.Transactions():
			if err := p.mempool.AdmissionCheck(tx); err != nil {
				p.log.Debug("rejected foreign transaction", "id", tx.ID, "err", err)
				continue
			}
			if err := p.mempool.AddTransaction(tx); err != nil {
				p.log.Debug("mempool add failed", "id", tx.ID, "err", err)
			}
		}
	}
}

// vdfHeartbeatLoop is the cooperative task that solves this node's own
// Sybil ticket once, then alternates between rebroadcasting it on
// centichain-vdf-proofs and verifying tickets peers broadcast to us —
// the only path by which a non-bootstrap peer's NodeState.IsVerified
// ever flips true (§4.1 eligibility path 3). The solve itself runs on
// the blocking VDF pool, never inline on this task.
func (p *Producer) vdfHeartbeatLoop(ctx context.Context) error {
	now := p.Clock()
	p.registry.RegisterNode(p.peerID, now)
	challenge := p.registry.VDFChallenge(p.peerID)
	engine := vdf.New(vdf.SybilDifficulty(p.registry.Count()))
	proof, err := p.vdfPool.Solve(ctx, engine, []byte(challenge))
	if err != nil {
		return err
	}
	p.registry.VerifyPeer(p.peerID, proof, engine)

	ticker := time.NewTicker(vdfHeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			msg := chainmodel.VdfProofMessage{PeerID: p.peerID, Proof: proof, Challenge: challenge}
			if err := p.overlay.PublishVDFProof(ctx, msg); err != nil {
				p.log.Warn("publish vdf heartbeat failed", "err", err)
			}
		case msg := <-p.overlay.VDFProofs():
			p.verifyPeerTicket(msg)
		}
	}
}

// verifyPeerTicket registers msg.PeerID if previously unseen, then checks
// its Sybil ticket against its own derived challenge — the message's
// Challenge field is carried for observability only, never trusted in
// place of the registry's own derivation.
func (p *Producer) verifyPeerTicket(msg chainmodel.VdfProofMessage) {
	p.registry.RegisterNode(msg.PeerID, p.Clock())
	engine := vdf.New(vdf.SybilDifficulty(p.registry.Count()))
	if !p.registry.VerifyPeer(msg.PeerID, msg.Proof, engine) {
		p.log.Warn("peer vdf ticket failed verification", "peer_id", msg.PeerID)
	}
}
