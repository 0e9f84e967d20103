package mempool

import (
	"testing"

	"github.com/centichain/node/internal/chainmodel"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	saved     map[string]chainmodel.Transaction
	balances  map[string]uint64
	confirmed map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		saved:     make(map[string]chainmodel.Transaction),
		balances:  make(map[string]uint64),
		confirmed: make(map[string]bool),
	}
}

func (f *fakeStore) SavePendingTx(tx chainmodel.Transaction) error {
	f.saved[tx.ID] = tx
	return nil
}

func (f *fakeStore) RemovePendingTx(id string) error {
	delete(f.saved, id)
	return nil
}

func (f *fakeStore) AllPendingTxs() ([]chainmodel.Transaction, error) {
	out := make([]chainmodel.Transaction, 0, len(f.saved))
	for _, tx := range f.saved {
		out = append(out, tx)
	}
	return out, nil
}

func (f *fakeStore) Balance(address string) (uint64, error) {
	return f.balances[address], nil
}

func (f *fakeStore) HasTransaction(id string) (bool, error) {
	return f.confirmed[id], nil
}

func TestAddTransaction_RejectsDuplicate(t *testing.T) {
	store := newFakeStore()
	m := New(store)
	tx := chainmodel.Transaction{ID: "tx1", Sender: "alice", Receiver: "bob", Amount: 100}
	require.NoError(t, m.AddTransaction(tx))
	require.Error(t, m.AddTransaction(tx))
	require.Equal(t, 1, m.Len())
}

func TestTotalPendingSpend_ExcludesCoinbase(t *testing.T) {
	store := newFakeStore()
	m := New(store)
	require.NoError(t, m.AddTransaction(chainmodel.Transaction{ID: "tx1", Sender: "alice", Receiver: "bob", Amount: 10_000}))
	require.NoError(t, m.AddTransaction(chainmodel.Transaction{ID: "reward", Sender: chainmodel.SystemSender, Receiver: "alice", Amount: 999}))

	spend := m.TotalPendingSpend("alice")
	require.Equal(t, uint64(10_000+1_000), spend) // fee floor applies
}

func TestRemoveTransactions(t *testing.T) {
	store := newFakeStore()
	m := New(store)
	require.NoError(t, m.AddTransaction(chainmodel.Transaction{ID: "tx1", Sender: "a", Receiver: "b", Amount: 1}))
	require.NoError(t, m.RemoveTransactions([]string{"tx1"}))
	require.Equal(t, 0, m.Len())
	require.Empty(t, store.saved)
}

func TestLoadFromDB(t *testing.T) {
	store := newFakeStore()
	store.saved["tx1"] = chainmodel.Transaction{ID: "tx1", Sender: "a", Receiver: "b", Amount: 1}
	m := New(store)
	require.NoError(t, m.LoadFromDB())
	require.Equal(t, 1, m.Len())
}

func TestReconcileWithChain_DropsConfirmedAndUnaffordable(t *testing.T) {
	store := newFakeStore()
	store.confirmed["tx-confirmed"] = true
	store.balances["poor"] = 0
	m := New(store)
	require.NoError(t, m.AddTransaction(chainmodel.Transaction{ID: "tx-confirmed", Sender: "a", Receiver: "b", Amount: 1}))
	require.NoError(t, m.AddTransaction(chainmodel.Transaction{ID: "tx-poor", Sender: "poor", Receiver: "b", Amount: 1000}))
	require.NoError(t, m.AddTransaction(chainmodel.Transaction{ID: "tx-ok", Sender: "rich", Receiver: "b", Amount: 1}))
	store.balances["rich"] = 1_000_000

	removed, err := m.ReconcileWithChain()
	require.NoError(t, err)
	require.Equal(t, 2, removed)
	require.Equal(t, 1, m.Len())
}

func TestAdmissionCheck(t *testing.T) {
	store := newFakeStore()
	store.balances["alice"] = 100_000
	m := New(store)

	require.NoError(t, m.AdmissionCheck(chainmodel.Transaction{Sender: "alice", Receiver: "bob", Amount: 50_000}))
	require.Error(t, m.AdmissionCheck(chainmodel.Transaction{Sender: "alice", Receiver: "bob", Amount: 200_000}))
	require.Error(t, m.AdmissionCheck(chainmodel.Transaction{Sender: "alice", Receiver: "alice", Amount: 1}))
	require.Error(t, m.AdmissionCheck(chainmodel.Transaction{Sender: "alice", Receiver: "", Amount: 1}))
}

func TestAdmissionCheck_AccountsForPendingSpend(t *testing.T) {
	store := newFakeStore()
	store.balances["alice"] = 10_000
	m := New(store)
	require.NoError(t, m.AddTransaction(chainmodel.Transaction{ID: "tx1", Sender: "alice", Receiver: "bob", Amount: 9_000}))

	err := m.AdmissionCheck(chainmodel.Transaction{Sender: "alice", Receiver: "carol", Amount: 500})
	require.Error(t, err)
}
