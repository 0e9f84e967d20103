// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chainmodel defines the wire and storage representation of
// transactions, blocks, and cross-shard receipts, plus the hashing and
// Merkleization rules that bind them together.
package chainmodel

// SystemSender marks a coinbase transaction: the first entry of a block
// body, minting the block reward plus fees to the author.
const SystemSender = "SYSTEM"

// GenesisTxID is the sentinel transaction id used by the index-0 coinbase.
const GenesisTxID = "genesis"

// RewardTxID is the sentinel transaction id used by every later coinbase.
const RewardTxID = "reward"

// Transaction is a single value transfer, pending or included in a block.
type Transaction struct {
	ID        string `json:"id" cbor:"id"`
	Sender    string `json:"sender" cbor:"sender"`
	Receiver  string `json:"receiver" cbor:"receiver"`
	Amount    uint64 `json:"amount" cbor:"amount"`
	ShardID   uint16 `json:"shard_id" cbor:"shard_id"`
	Timestamp uint64 `json:"timestamp" cbor:"timestamp"`
	Signature string `json:"signature" cbor:"signature"`
}

// IsCoinbase reports whether tx is a block's minting transaction.
func (tx Transaction) IsCoinbase() bool {
	return tx.Sender == SystemSender
}

// IndependentOf reports whether tx and other touch disjoint sender and
// receiver sets, the precondition for executing them in parallel.
func (tx Transaction) IndependentOf(other Transaction) bool {
	parties := map[string]struct{}{tx.Sender: {}, tx.Receiver: {}}
	if _, clash := parties[other.Sender]; clash {
		return false
	}
	if _, clash := parties[other.Receiver]; clash {
		return false
	}
	return true
}

// NewCoinbase builds the first transaction of a block: it mints reward+fees
// to author. idx selects the sentinel id: "genesis" at block 0, "reward"
// otherwise.
func NewCoinbase(idx uint64, author string, reward, fees uint64, timestamp uint64, shardID uint16) Transaction {
	id := RewardTxID
	if idx == 0 {
		id = GenesisTxID
	}
	return Transaction{
		ID:        id,
		Sender:    SystemSender,
		Receiver:  author,
		Amount:    reward + fees,
		ShardID:   shardID,
		Timestamp: timestamp,
	}
}
