// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mempool holds transactions awaiting inclusion in a block: an
// in-memory index mirrored to durable storage, admission checks, and
// reconciliation against the chain once blocks land.
package mempool

import (
	"fmt"
	"sync"

	"github.com/centichain/node/internal/chainmodel"
	"github.com/centichain/node/internal/tokenomics"
)

// Store is the durable backing a Mempool mirrors to. Implemented by
// internal/storage.
type Store interface {
	SavePendingTx(tx chainmodel.Transaction) error
	RemovePendingTx(id string) error
	AllPendingTxs() ([]chainmodel.Transaction, error)
	Balance(address string) (uint64, error)
	HasTransaction(id string) (bool, error)
}

// Mempool is the in-memory pending-transaction index.
type Mempool struct {
	mu      sync.RWMutex
	store   Store
	pending map[string]chainmodel.Transaction
}

// New returns a Mempool backed by store.
func New(store Store) *Mempool {
	return &Mempool{
		store:   store,
		pending: make(map[string]chainmodel.Transaction),
	}
}

// LoadFromDB hydrates the in-memory index from the durable mempool table.
// Call once at startup before accepting new transactions.
func (m *Mempool) LoadFromDB() error {
	txs, err := m.store.AllPendingTxs()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range txs {
		m.pending[tx.ID] = tx
	}
	return nil
}

// AddTransaction admits tx: rejects on duplicate id, otherwise persists
// then inserts in memory. Admission preconditions (balance sufficiency,
// receiver validity) are the caller's responsibility — see
// AdmissionCheck.
func (m *Mempool) AddTransaction(tx chainmodel.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pending[tx.ID]; exists {
		return fmt.Errorf("mempool: duplicate transaction id %q", tx.ID)
	}
	if err := m.store.SavePendingTx(tx); err != nil {
		return fmt.Errorf("mempool: persist pending tx: %w", err)
	}
	m.pending[tx.ID] = tx
	return nil
}

// PendingTransactions returns a snapshot of every pending transaction.
func (m *Mempool) PendingTransactions() []chainmodel.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]chainmodel.Transaction, 0, len(m.pending))
	for _, tx := range m.pending {
		out = append(out, tx)
	}
	return out
}

// TotalPendingSpend sums amount+fee for every non-coinbase pending
// transaction sent by address.
func (m *Mempool) TotalPendingSpend(address string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total uint64
	for _, tx := range m.pending {
		if tx.Sender == address && !tx.IsCoinbase() {
			total += tx.Amount + tokenomics.CalculateFee(tx.Amount)
		}
	}
	return total
}

// RemoveTransactions drops ids from both the in-memory index and durable
// storage. Errors removing individual rows are collected but do not stop
// the sweep — a row that can't be deleted from storage still shouldn't
// linger in memory.
func (m *Mempool) RemoveTransactions(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, id := range ids {
		delete(m.pending, id)
		if err := m.store.RemovePendingTx(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Len returns the number of pending transactions.
func (m *Mempool) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pending)
}

// ReconcileWithChain drops any pending transaction that already landed in
// a block, or whose sender can no longer afford it, and returns the
// number removed.
func (m *Mempool) ReconcileWithChain() (int, error) {
	m.mu.Lock()
	snapshot := make([]chainmodel.Transaction, 0, len(m.pending))
	for _, tx := range m.pending {
		snapshot = append(snapshot, tx)
	}
	m.mu.Unlock()

	var stale []string
	for _, tx := range snapshot {
		included, err := m.store.HasTransaction(tx.ID)
		if err != nil {
			return 0, fmt.Errorf("mempool: reconcile lookup: %w", err)
		}
		if included {
			stale = append(stale, tx.ID)
			continue
		}
		if tx.IsCoinbase() {
			continue
		}
		balance, err := m.store.Balance(tx.Sender)
		if err != nil {
			return 0, fmt.Errorf("mempool: reconcile balance: %w", err)
		}
		needed := tx.Amount + tokenomics.CalculateFee(tx.Amount)
		if balance < needed {
			stale = append(stale, tx.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := m.RemoveTransactions(stale); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// AdmissionCheck validates a user-initiated transaction against the
// admission invariant: amount+fee must not exceed the sender's spendable
// balance (on-chain balance minus already-pending obligations), the
// receiver must be a distinct, non-empty identity.
func (m *Mempool) AdmissionCheck(tx chainmodel.Transaction) error {
	if tx.Receiver == "" {
		return fmt.Errorf("mempool: receiver must not be empty")
	}
	if tx.Receiver == tx.Sender {
		return fmt.Errorf("mempool: receiver must differ from sender")
	}
	fee := tokenomics.CalculateFee(tx.Amount)
	balance, err := m.store.Balance(tx.Sender)
	if err != nil {
		return fmt.Errorf("mempool: admission balance lookup: %w", err)
	}
	spendable := balance - m.TotalPendingSpend(tx.Sender)
	if balance < m.TotalPendingSpend(tx.Sender) {
		spendable = 0
	}
	if tx.Amount+fee > spendable {
		return fmt.Errorf("mempool: insufficient funds: need %d, have %d spendable", tx.Amount+fee, spendable)
	}
	return nil
}
