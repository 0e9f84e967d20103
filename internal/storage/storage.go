// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage persists blocks, wallet material, settings, the mempool
// mirror, and per-address balances behind a single key-value database,
// following the five-table schema external tooling expects on disk.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"sync"

	"github.com/centichain/node/internal/chainmodel"
	"github.com/centichain/node/internal/tokenomics"
	"github.com/centichain/node/utils/math"
	"github.com/hashicorp/golang-lru"
	"github.com/luxfi/database"
	"github.com/pkg/errors"
)

// Table key prefixes. The backing database.Database is a flat keyspace;
// prefixing emulates the five independent tables (blocks, wallet,
// settings, mempool, state) the original schema names.
var (
	blocksPrefix   = []byte("b:")
	walletPrefix   = []byte("w:")
	settingsPrefix = []byte("s:")
	mempoolPrefix  = []byte("m:")
	statePrefix    = []byte("a:")

	latestIndexKey = []byte("meta:latest_index")
)

const blockCacheSize = 256

// Storage is the node's durable state: the block chain, per-address
// balances, the mempool mirror, wallet material, and misc settings.
// Writes are serialized by db's own internal locking contract
// (multi-reader/single-writer); Storage adds a coarse write mutex so the
// balance-debit/credit pass in SaveBlock is atomic with the block write.
type Storage struct {
	db        database.Database
	writeMu   sync.Mutex
	blockLRU  *lru.Cache
}

// New opens a Storage instance over db.
func New(db database.Database) (*Storage, error) {
	cache, err := lru.New(blockCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "storage: create block cache")
	}
	return &Storage{db: db, blockLRU: cache}, nil
}

func blockKey(index uint64) []byte {
	key := make([]byte, len(blocksPrefix)+8)
	copy(key, blocksPrefix)
	binary.BigEndian.PutUint64(key[len(blocksPrefix):], index)
	return key
}

func stateKey(address string) []byte {
	return append(append([]byte{}, statePrefix...), []byte(address)...)
}

func mempoolKey(txID string) []byte {
	return append(append([]byte{}, mempoolPrefix...), []byte(txID)...)
}

func settingsKey(key string) []byte {
	return append(append([]byte{}, settingsPrefix...), []byte(key)...)
}

func walletKey() []byte {
	return append([]byte{}, walletPrefix...)
}

// SaveBlock writes block at block.Header.Index and atomically applies its
// balance side effects: every non-coinbase transaction debits the sender
// by amount+fee (saturating) and credits the receiver by amount; the
// coinbase only credits its receiver.
func (s *Storage) SaveBlock(block chainmodel.Block) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	encoded, err := json.Marshal(block)
	if err != nil {
		return errors.Wrap(err, "storage: marshal block")
	}

	for _, tx := range block.Transactions {
		if err := s.applyTransactionLocked(tx); err != nil {
			return errors.Wrapf(err, "storage: apply tx %s", tx.ID)
		}
	}

	if err := s.db.Put(blockKey(block.Header.Index), encoded); err != nil {
		return errors.Wrap(err, "storage: put block")
	}
	if err := s.bumpLatestIndexLocked(block.Header.Index); err != nil {
		return err
	}
	s.blockLRU.Add(block.Header.Index, block)
	return nil
}

func (s *Storage) applyTransactionLocked(tx chainmodel.Transaction) error {
	if !tx.IsCoinbase() {
		senderBalance, err := s.balanceLocked(tx.Sender)
		if err != nil {
			return err
		}
		fee := tokenomics.CalculateFee(tx.Amount)
		debit, _ := math.Sub64(senderBalance, tx.Amount+fee) // saturating
		if err := s.db.Put(stateKey(tx.Sender), encodeBalance(debit)); err != nil {
			return err
		}
		if err := s.addToAddressIndexLocked(tx.Sender); err != nil {
			return err
		}
	}
	receiverBalance, err := s.balanceLocked(tx.Receiver)
	if err != nil {
		return err
	}
	credit, err := math.Add64(receiverBalance, tx.Amount)
	if err != nil {
		credit = receiverBalance // overflow: balance pinned, never double-counted beyond u64 range
	}
	if err := s.db.Put(stateKey(tx.Receiver), encodeBalance(credit)); err != nil {
		return err
	}
	return s.addToAddressIndexLocked(tx.Receiver)
}

func (s *Storage) balanceLocked(address string) (uint64, error) {
	raw, err := s.db.Get(stateKey(address))
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeBalance(raw), nil
}

// Balance returns address's current balance, defaulting to 0.
func (s *Storage) Balance(address string) (uint64, error) {
	raw, err := s.db.Get(stateKey(address))
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "storage: get balance")
	}
	return decodeBalance(raw), nil
}

func encodeBalance(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeBalance(raw []byte) uint64 {
	if len(raw) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}

func (s *Storage) bumpLatestIndexLocked(index uint64) error {
	current, err := s.latestIndexLocked()
	if err != nil {
		return err
	}
	if index > current {
		return s.db.Put(latestIndexKey, encodeBalance(index))
	}
	return nil
}

func (s *Storage) latestIndexLocked() (uint64, error) {
	raw, err := s.db.Get(latestIndexKey)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeBalance(raw), nil
}

// GetLatestIndex returns the highest block index ever written, or 0 if the
// chain is empty.
func (s *Storage) GetLatestIndex() (uint64, error) {
	return s.latestIndexLocked()
}

// GetBlock returns the block at index, consulting the LRU cache first.
func (s *Storage) GetBlock(index uint64) (*chainmodel.Block, error) {
	if cached, ok := s.blockLRU.Get(index); ok {
		b := cached.(chainmodel.Block)
		return &b, nil
	}
	raw, err := s.db.Get(blockKey(index))
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "storage: get block")
	}
	var block chainmodel.Block
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, errors.Wrap(err, "storage: decode block")
	}
	s.blockLRU.Add(index, block)
	return &block, nil
}

// GetTotalBlocks returns the count of stored block headers (latest index + 1,
// or 0 for an empty chain).
func (s *Storage) GetTotalBlocks() (uint64, error) {
	latest, err := s.GetLatestIndex()
	if err != nil {
		return 0, err
	}
	genesis, err := s.GetBlock(0)
	if err != nil {
		return 0, err
	}
	if genesis == nil {
		return 0, nil
	}
	return latest + 1, nil
}

// GetBlockByHash linearly scans stored blocks for one matching hash.
func (s *Storage) GetBlockByHash(hash string) (*chainmodel.Block, error) {
	latest, err := s.GetLatestIndex()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i <= latest; i++ {
		b, err := s.GetBlock(i)
		if err != nil {
			return nil, err
		}
		if b != nil && b.Hash() == hash {
			return b, nil
		}
	}
	return nil, nil
}

// GetTransactionByID linearly scans stored blocks for a transaction with
// the given id.
func (s *Storage) GetTransactionByID(id string) (*chainmodel.Transaction, *chainmodel.Block, error) {
	latest, err := s.GetLatestIndex()
	if err != nil {
		return nil, nil, err
	}
	for i := uint64(0); i <= latest; i++ {
		b, err := s.GetBlock(i)
		if err != nil {
			return nil, nil, err
		}
		if b == nil {
			continue
		}
		for _, tx := range b.Transactions {
			if tx.ID == id {
				return &tx, b, nil
			}
		}
	}
	return nil, nil, nil
}

// HasTransaction reports whether id already appears in some stored block.
func (s *Storage) HasTransaction(id string) (bool, error) {
	tx, _, err := s.GetTransactionByID(id)
	return tx != nil, err
}

// CountBlocksByAuthor counts blocks whose header.Author == address.
func (s *Storage) CountBlocksByAuthor(address string) (uint64, error) {
	latest, err := s.GetLatestIndex()
	if err != nil {
		return 0, err
	}
	var count uint64
	for i := uint64(0); i <= latest; i++ {
		b, err := s.GetBlock(i)
		if err != nil {
			return 0, err
		}
		if b != nil && b.Header.Author == address {
			count++
		}
	}
	return count, nil
}

// GetRecentBlocks returns up to limit of the most recently stored blocks,
// newest first.
func (s *Storage) GetRecentBlocks(limit int) ([]chainmodel.Block, error) {
	latest, err := s.GetLatestIndex()
	if err != nil {
		return nil, err
	}
	out := make([]chainmodel.Block, 0, limit)
	for i := latest; len(out) < limit; {
		b, err := s.GetBlock(i)
		if err != nil {
			return nil, err
		}
		if b != nil {
			out = append(out, *b)
		}
		if i == 0 {
			break
		}
		i--
	}
	return out, nil
}

// GetBlocksPaginated returns blocks [offset, offset+limit).
func (s *Storage) GetBlocksPaginated(offset, limit uint64) ([]chainmodel.Block, error) {
	latest, err := s.GetLatestIndex()
	if err != nil {
		return nil, err
	}
	out := make([]chainmodel.Block, 0, limit)
	for i := offset; i < offset+limit && i <= latest; i++ {
		b, err := s.GetBlock(i)
		if err != nil {
			return nil, err
		}
		if b != nil {
			out = append(out, *b)
		}
	}
	return out, nil
}

// SaveWalletKeys persists opaque wallet key material.
func (s *Storage) SaveWalletKeys(keysJSON string) error {
	return s.db.Put(walletKey(), []byte(keysJSON))
}

// GetWalletKeys returns persisted wallet key material, or "" if none.
func (s *Storage) GetWalletKeys() (string, error) {
	raw, err := s.db.Get(walletKey())
	if errors.Is(err, database.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DeleteWalletKeys removes persisted wallet key material.
func (s *Storage) DeleteWalletKeys() error {
	return s.db.Delete(walletKey())
}

// SaveSetting persists an opaque setting value.
func (s *Storage) SaveSetting(key, value string) error {
	return s.db.Put(settingsKey(key), []byte(value))
}

// GetSetting returns a persisted setting value, and whether it existed.
func (s *Storage) GetSetting(key string) (string, bool, error) {
	raw, err := s.db.Get(settingsKey(key))
	if errors.Is(err, database.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(raw), true, nil
}

// SavePendingTx mirrors a mempool transaction to durable storage.
func (s *Storage) SavePendingTx(tx chainmodel.Transaction) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	encoded, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	if err := s.db.Put(mempoolKey(tx.ID), encoded); err != nil {
		return err
	}
	return s.addToMempoolIndexLocked(tx.ID)
}

// RemovePendingTx deletes a mirrored mempool transaction.
func (s *Storage) RemovePendingTx(id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.db.Delete(mempoolKey(id)); err != nil {
		return err
	}
	return s.removeFromMempoolIndexLocked(id)
}

func (s *Storage) addToMempoolIndexLocked(id string) error {
	ids, err := s.mempoolIndex()
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	return s.putMempoolIndexLocked(ids)
}

func (s *Storage) removeFromMempoolIndexLocked(id string) error {
	ids, err := s.mempoolIndex()
	if err != nil {
		return err
	}
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return s.putMempoolIndexLocked(out)
}

func (s *Storage) putMempoolIndexLocked(ids []string) error {
	encoded, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.db.Put(mempoolIndexKey, encoded)
}

// AllPendingTxs is intentionally not a prefix scan: database.Database
// exposes no iterator in the surface this node depends on, so the mempool
// mirror is also kept in an index table of ids alongside the mempool
// prefix. See mempoolIndex.
func (s *Storage) AllPendingTxs() ([]chainmodel.Transaction, error) {
	ids, err := s.mempoolIndex()
	if err != nil {
		return nil, err
	}
	out := make([]chainmodel.Transaction, 0, len(ids))
	for _, id := range ids {
		raw, err := s.db.Get(mempoolKey(id))
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var tx chainmodel.Transaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			continue // corrupted row: skip it, don't fail the whole load
		}
		out = append(out, tx)
	}
	return out, nil
}

var mempoolIndexKey = []byte("meta:mempool_index")

func (s *Storage) mempoolIndex() ([]string, error) {
	raw, err := s.db.Get(mempoolIndexKey)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, nil
	}
	return ids, nil
}

// addressIndexKey tracks every address that has ever received or sent a
// balance-affecting transaction, the same way mempoolIndexKey tracks
// pending-tx ids: database.Database's surface in this module (Get/Put/
// Delete/Has, no iterator) gives no other way to enumerate the state
// table's keys for a full wipe.
var addressIndexKey = []byte("meta:address_index")

func (s *Storage) addressIndex() ([]string, error) {
	raw, err := s.db.Get(addressIndexKey)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var addrs []string
	if err := json.Unmarshal(raw, &addrs); err != nil {
		return nil, nil
	}
	return addrs, nil
}

func (s *Storage) addToAddressIndexLocked(address string) error {
	addrs, err := s.addressIndex()
	if err != nil {
		return err
	}
	for _, existing := range addrs {
		if existing == address {
			return nil
		}
	}
	addrs = append(addrs, address)
	encoded, err := json.Marshal(addrs)
	if err != nil {
		return err
	}
	return s.db.Put(addressIndexKey, encoded)
}

// ResetBlocks truncates the blocks, state, and mempool tables.
func (s *Storage) ResetBlocks() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	latest, err := s.latestIndexLocked()
	if err != nil {
		return err
	}
	for i := uint64(0); i <= latest; i++ {
		_ = s.db.Delete(blockKey(i))
	}
	s.blockLRU.Purge()

	addrs, err := s.addressIndex()
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		_ = s.db.Delete(stateKey(addr))
	}
	if err := s.db.Put(addressIndexKey, []byte("[]")); err != nil {
		return err
	}

	ids, err := s.mempoolIndex()
	if err != nil {
		return err
	}
	for _, id := range ids {
		_ = s.db.Delete(mempoolKey(id))
	}
	if err := s.db.Put(mempoolIndexKey, []byte("[]")); err != nil {
		return err
	}
	return s.db.Put(latestIndexKey, encodeBalance(0))
}

// PruneHistory rewrites every block older than (latest - keep) to drop its
// transaction body, retaining only the header. Returns the number of
// blocks pruned.
func (s *Storage) PruneHistory(keep uint64) (uint64, error) {
	latest, err := s.GetLatestIndex()
	if err != nil {
		return 0, err
	}
	if latest <= keep {
		return 0, nil
	}
	cutoff := latest - keep
	var pruned uint64
	for i := uint64(0); i < cutoff; i++ {
		b, err := s.GetBlock(i)
		if err != nil {
			return pruned, err
		}
		if b == nil || len(b.Transactions) == 0 {
			continue
		}
		b.Transactions = nil
		encoded, err := json.Marshal(*b)
		if err != nil {
			return pruned, err
		}
		if err := s.db.Put(blockKey(i), encoded); err != nil {
			return pruned, err
		}
		s.blockLRU.Remove(i)
		pruned++
	}
	return pruned, nil
}
