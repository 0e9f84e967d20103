package chainmodel

// ReceiptStatus is the lifecycle state of a cross-shard receipt.
type ReceiptStatus string

const (
	// ReceiptPending is the only status the core currently emits; the
	// transitions to Claimed/Reverted are a phase-3 hook with no code
	// path in this core.
	ReceiptPending  ReceiptStatus = "Pending"
	ReceiptClaimed  ReceiptStatus = "Claimed"
	ReceiptReverted ReceiptStatus = "Reverted"
)

// Receipt records a cross-shard value transfer: the source shard's block
// included the transaction, and the target shard is expected to credit it.
type Receipt struct {
	OriginalTxID string        `json:"original_tx_id" cbor:"original_tx_id"`
	SourceShard  uint16        `json:"source_shard" cbor:"source_shard"`
	TargetShard  uint16        `json:"target_shard" cbor:"target_shard"`
	Amount       uint64        `json:"amount" cbor:"amount"`
	Receiver     string        `json:"receiver" cbor:"receiver"`
	BlockHash    string        `json:"block_hash" cbor:"block_hash"`
	MerkleProof  []string      `json:"merkle_proof" cbor:"merkle_proof"`
	Status       ReceiptStatus `json:"status" cbor:"status"`
}

// NewPendingReceipt builds a receipt for a transaction whose receiver
// resolves to a different shard than the block that carries it.
func NewPendingReceipt(tx Transaction, sourceShard, targetShard uint16, blockHash string) Receipt {
	return Receipt{
		OriginalTxID: tx.ID,
		SourceShard:  sourceShard,
		TargetShard:  targetShard,
		Amount:       tx.Amount,
		Receiver:     tx.Receiver,
		BlockHash:    blockHash,
		MerkleProof:  nil,
		Status:       ReceiptPending,
	}
}

// VdfProofMessage is broadcast after a peer solves its Sybil ticket.
type VdfProofMessage struct {
	PeerID    string `json:"peer_id" cbor:"peer_id"`
	Proof     string `json:"proof" cbor:"proof"`
	Challenge string `json:"challenge" cbor:"challenge"`
}
