package producer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/centichain/node/internal/chainmodel"
	"github.com/centichain/node/internal/config"
	"github.com/centichain/node/internal/gossip/gossipmock"
	"github.com/centichain/node/internal/mempool"
	"github.com/centichain/node/internal/nodemetrics"
	"github.com/centichain/node/internal/registry"
	"github.com/centichain/node/internal/storage"
	"github.com/centichain/node/internal/vdf"
	"github.com/centichain/node/internal/vdfpool"
	"github.com/centichain/node/log"
	"github.com/luxfi/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type memDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func newMemDB() *memDB { return &memDB{data: make(map[string][]byte)} }

func (m *memDB) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *memDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *memDB) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

func (m *memDB) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *memDB) NewBatch() database.Batch { return nil }
func (m *memDB) Close() error             { return nil }

func newHarness(t *testing.T) (*Producer, *storage.Storage, *mempool.Mempool, *registry.Registry, *gossipmock.Overlay) {
	t.Helper()
	st, err := storage.New(newMemDB())
	require.NoError(t, err)
	mp := mempool.New(st)
	reg := registry.New("")
	overlay := gossipmock.New()
	m, err := nodemetrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	cfg := config.DefaultNode()
	cfg.RelayAddr = ""

	p := New(cfg, "node-solo", st, mp, reg, overlay, vdfpool.New(2), m, log.NewNoOp())
	return p, st, mp, reg, overlay
}

func TestWaitForPeersOrGenesis_CreatesGenesisWhenAlone(t *testing.T) {
	origWait := peerDiscoveryWait
	peerDiscoveryWait = 20 * time.Millisecond
	defer func() { peerDiscoveryWait = origWait }()

	p, st, _, reg, _ := newHarness(t)
	require.NoError(t, p.waitForPeersOrGenesis(context.Background()))

	genesis, err := st.GetBlock(0)
	require.NoError(t, err)
	require.NotNil(t, genesis)
	require.Equal(t, "node-solo", genesis.Header.Author)
	require.True(t, p.synced.Load())

	node, ok := reg.Node("node-solo")
	require.True(t, ok)
	require.True(t, node.Activated())
}

func TestAwaitRelay_SkipsWhenNoRelayConfigured(t *testing.T) {
	p, _, _, _, _ := newHarness(t)
	require.NoError(t, p.awaitRelay(context.Background()))
}

func TestAwaitRelay_ReturnsImmediatelyWhenConnected(t *testing.T) {
	p, _, _, _, overlay := newHarness(t)
	p.cfg.RelayAddr = "/ip4/1.2.3.4/tcp/4001"
	overlay.Relay = true
	require.NoError(t, p.awaitRelay(context.Background()))
}

func TestTryProduce_SoloMintsBlockWhenLeader(t *testing.T) {
	p, st, mp, reg, overlay := newHarness(t)
	p.Clock = func() uint64 { return 9_999 }
	require.NoError(t, p.createGenesis())

	require.NoError(t, mp.AddTransaction(chainmodel.Transaction{
		ID: "tx1", Sender: "node-solo", Receiver: "bob", Amount: 10_000,
	}))

	reg.UpdateActiveStatus(10_000)
	now := uint64(10_001) // mod SlotDuration(2) == 1, satisfies slot gating
	require.NoError(t, p.tryProduce(context.Background(), now))

	total, err := st.GetTotalBlocks()
	require.NoError(t, err)
	require.Equal(t, uint64(2), total)

	block, err := st.GetBlock(1)
	require.NoError(t, err)
	require.NotNil(t, block)
	require.True(t, block.IsVDFValid(func(c []byte, proof string) bool {
		return vdfVerify(block.Header.VDFDifficulty, c, proof)
	}))
	require.Len(t, overlay.PublishedBlocks, 1)
}

func TestTryProduce_StampsSealedBlockHashOntoCrossShardReceipts(t *testing.T) {
	p, st, mp, reg, overlay := newHarness(t)
	p.Clock = func() uint64 { return 9_999 }
	require.NoError(t, p.createGenesis()) // force-activates node-solo

	// Inflate the validator population past ValidatorsPerShard so two
	// shards become active, without making any of the new peers eligible
	// for leadership (they are never verified or activated) — node-solo
	// stays the sole eligible candidate for whatever shard it lands in.
	for i := 0; i < 120; i++ {
		reg.RegisterNode(fmt.Sprintf("peer-%d", i), 0)
	}
	require.GreaterOrEqual(t, reg.ActiveShards(), uint16(2))

	now := uint64(10_001)
	epoch := registry.CurrentEpoch(now)
	myShard := reg.AssignedShard("node-solo", epoch)

	var receiver string
	for i := 0; ; i++ {
		cand := fmt.Sprintf("receiver-%d", i)
		if chainmodel.ShardOf(cand, epoch, reg.ActiveShards()) != myShard {
			receiver = cand
			break
		}
	}

	require.NoError(t, mp.AddTransaction(chainmodel.Transaction{
		ID: "tx1", Sender: "node-solo", Receiver: receiver, ShardID: myShard, Amount: 10_000,
	}))

	reg.UpdateActiveStatus(10_000)
	require.NoError(t, p.tryProduce(context.Background(), now))

	require.Len(t, overlay.PublishedReceipts, 1)
	require.NotEmpty(t, overlay.PublishedReceipts[0].BlockHash)

	block, err := st.GetBlock(1)
	require.NoError(t, err)
	require.Equal(t, block.Hash(), overlay.PublishedReceipts[0].BlockHash)
}

func TestIngestBlock_RejectsInvalidVDF(t *testing.T) {
	p, _, _, _, _ := newHarness(t)
	block := chainmodel.NewGenesisBlock("someone-else", 1, 1, 100)
	block.Header.VDFProof = "not-a-real-proof"
	err := p.IngestBlock(block)
	require.ErrorIs(t, err, errInvalidVDF)
}

func TestIngestBlock_RejectsDuplicateIndex(t *testing.T) {
	p, st, _, _, _ := newHarness(t)
	require.NoError(t, p.createGenesis())

	dup := chainmodel.NewGenesisBlock("someone-else", 1, 1, 100)
	dup.Header.VDFProof = solveFor(dup.Header.VDFDifficulty, dup.Header.ChallengeHash())
	err := p.IngestBlock(dup)
	require.ErrorIs(t, err, errDuplicateIndex)

	// createGenesis's own block must be untouched.
	b, err := st.GetBlock(0)
	require.NoError(t, err)
	require.Equal(t, "node-solo", b.Header.Author)
}

func TestIngestBlock_AppliesMarksPeerActiveAndRemovesMempoolEntries(t *testing.T) {
	p, st, mp, reg, _ := newHarness(t)
	require.NoError(t, mp.AddTransaction(chainmodel.Transaction{ID: "tx1", Sender: "a", Receiver: "b", Amount: 1}))

	block := chainmodel.Block{
		Header: chainmodel.Header{Index: 0, Author: "peer-x", PreviousHash: "", Timestamp: 100, VDFDifficulty: 100},
		Transactions: []chainmodel.Transaction{
			chainmodel.NewCoinbase(0, "peer-x", 1, 0, 100, 0),
			{ID: "tx1", Sender: "a", Receiver: "b", Amount: 1},
		},
	}
	block.Header.MerkleRoot = block.RecomputeMerkleRoot()
	proof := solveFor(block.Header.VDFDifficulty, block.Header.ChallengeHash())
	block.Header.VDFProof = proof

	require.NoError(t, p.IngestBlock(block))

	node, ok := reg.Node("peer-x")
	require.True(t, ok)
	require.True(t, node.Activated())

	require.Equal(t, 0, mp.Len())
	_, err := st.GetBlock(0)
	require.NoError(t, err)
}

func TestVDFHeartbeatLoop_EmitsOwnTicketAndVerifiesPeers(t *testing.T) {
	p, _, _, reg, overlay := newHarness(t)

	origInterval := vdfHeartbeatInterval
	vdfHeartbeatInterval = 10 * time.Millisecond
	defer func() { vdfHeartbeatInterval = origInterval }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.vdfHeartbeatLoop(ctx) }()

	challenge := reg.VDFChallenge("peer-y")
	// node-solo and peer-y are both registered when the ticket is verified.
	proof := vdf.New(vdf.SybilDifficulty(2)).Solve([]byte(challenge))
	overlay.DeliverVDFProof(chainmodel.VdfProofMessage{PeerID: "peer-y", Proof: proof, Challenge: challenge})

	var verified bool
	for i := 0; i < 200; i++ {
		if node, ok := reg.Node("peer-y"); ok && node.IsVerified {
			verified = true
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, verified, "peer ticket was never verified")

	var broadcast bool
	for i := 0; i < 200; i++ {
		if overlay.PublishedVDFProofCount() > 0 {
			broadcast = true
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, broadcast, "own ticket was never broadcast")

	node, ok := reg.Node("node-solo")
	require.True(t, ok)
	require.True(t, node.IsVerified)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func vdfVerify(difficulty uint64, challenge []byte, proof string) bool {
	return vdf.New(difficulty).Verify(challenge, proof)
}

func solveFor(difficulty uint64, challenge string) string {
	return vdf.New(difficulty).Solve([]byte(challenge))
}
