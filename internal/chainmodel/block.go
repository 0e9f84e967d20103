package chainmodel

import (
	"github.com/centichain/node/utils/wrappers"
)

// StartTimeWeight is carried in every header for forward compatibility;
// current leader election does not read it.
const StartTimeWeight uint64 = 100

// HeaderVersion is the wire version of the block header format.
const HeaderVersion uint32 = 1

// Header carries everything needed to hash, seal, and validate a block
// independent of its transaction body.
type Header struct {
	Index           uint64 `json:"index" cbor:"index"`
	Timestamp       uint64 `json:"timestamp" cbor:"timestamp"`
	Author          string `json:"author" cbor:"author"`
	PreviousHash    string `json:"previous_hash" cbor:"previous_hash"`
	MerkleRoot      string `json:"merkle_root" cbor:"merkle_root"`
	StateRoot       string `json:"state_root" cbor:"state_root"`
	Nonce           uint64 `json:"nonce" cbor:"nonce"`
	VDFDifficulty   uint64 `json:"vdf_difficulty" cbor:"vdf_difficulty"`
	VDFProof        string `json:"vdf_proof" cbor:"vdf_proof"`
	ShardID         uint16 `json:"shard_id" cbor:"shard_id"`
	Version         uint32 `json:"version" cbor:"version"`
	Size            uint64 `json:"size" cbor:"size"`
	TotalFees       uint64 `json:"total_fees" cbor:"total_fees"`
	BlockReward     uint64 `json:"block_reward" cbor:"block_reward"`
	TotalReward     uint64 `json:"total_reward" cbor:"total_reward"`
	StartTimeWeight uint64 `json:"start_time_weight" cbor:"start_time_weight"`
}

// Block is a header plus its ordered transaction body.
type Block struct {
	Header       Header        `json:"header" cbor:"header"`
	Transactions []Transaction `json:"transactions" cbor:"transactions"`
}

// Hash returns the block's identity hash, computed from the header with
// its current (stamped) vdf_proof.
func (b Block) Hash() string {
	return b.Header.Hash(b.Header.VDFProof)
}

// IsVDFValid recomputes the pre-seal challenge hash and checks it against
// the stamped proof using the given difficulty-aware verifier.
func (b Block) IsVDFValid(verify func(challenge []byte, proof string) bool) bool {
	challenge := b.Header.ChallengeHash()
	return verify([]byte(challenge), b.Header.VDFProof)
}

// RecomputeMerkleRoot derives the header's merkle_root from the current
// transaction set.
func (b Block) RecomputeMerkleRoot() string {
	ids := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		ids[i] = tx.ID
	}
	return MerkleRoot(ids)
}

// SerializedSize returns the exact binary-serialized length of the block,
// used both to stamp header.Size and as the wire format for network
// interchange of block bodies.
func (b Block) SerializedSize() int {
	return len(b.Marshal())
}

// Marshal encodes the block in the node's deterministic binary body
// format: header fields packed big-endian, followed by a length-prefixed
// sequence of transactions, each itself a length-prefixed field packing.
func (b Block) Marshal() []byte {
	p := wrappers.NewPacker(4096)
	p.PackLong(b.Header.Index)
	p.PackLong(b.Header.Timestamp)
	packString(p, b.Header.Author)
	packString(p, b.Header.PreviousHash)
	packString(p, b.Header.MerkleRoot)
	packString(p, b.Header.StateRoot)
	p.PackLong(b.Header.Nonce)
	p.PackLong(b.Header.VDFDifficulty)
	packString(p, b.Header.VDFProof)
	p.PackInt(uint32(b.Header.ShardID))
	p.PackInt(b.Header.Version)
	p.PackLong(b.Header.TotalFees)
	p.PackLong(b.Header.BlockReward)
	p.PackLong(b.Header.TotalReward)
	p.PackLong(b.Header.StartTimeWeight)

	p.PackInt(uint32(len(b.Transactions)))
	for _, tx := range b.Transactions {
		packString(p, tx.ID)
		packString(p, tx.Sender)
		packString(p, tx.Receiver)
		p.PackLong(tx.Amount)
		p.PackInt(uint32(tx.ShardID))
		p.PackLong(tx.Timestamp)
		packString(p, tx.Signature)
	}
	return p.Bytes
}

func packString(p *wrappers.Packer, s string) {
	p.PackInt(uint32(len(s)))
	p.PackBytes([]byte(s))
}

// NewGenesisBlock builds the index-0 block: a single coinbase transaction
// minting reward to author (the producer passes GenesisSupply), sealed at
// the given difficulty. The
// caller is responsible for solving and stamping header.VDFProof.
func NewGenesisBlock(author string, reward uint64, timestamp uint64, vdfDifficulty uint64) Block {
	coinbase := NewCoinbase(0, author, reward, 0, timestamp, 0)
	header := Header{
		Index:           0,
		Timestamp:       timestamp,
		Author:          author,
		PreviousHash:    emptyMerkleRoot,
		VDFDifficulty:   vdfDifficulty,
		ShardID:         0,
		Version:         HeaderVersion,
		TotalFees:       0,
		BlockReward:     reward,
		TotalReward:     reward,
		StartTimeWeight: StartTimeWeight,
	}
	block := Block{Header: header, Transactions: []Transaction{coinbase}}
	block.Header.MerkleRoot = block.RecomputeMerkleRoot()
	block.Header.StateRoot = emptyMerkleRoot
	return block
}
