package progress

import (
	"context"
	"nft-escrow-sol/internal/types"
	"sync"
)

// MemoryProgressStore 进程内状态存储，单实例部署或本地回放使用，无 TTL
type MemoryProgressStore struct {
	mu     sync.Mutex
	status map[types.Hash]TxStatus
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{status: make(map[types.Hash]TxStatus)}
}

func (m *MemoryProgressStore) GetTxStatus(_ context.Context, txID types.Hash) (TxStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[txID], nil
}

func (m *MemoryProgressStore) MarkTxStatus(_ context.Context, txID types.Hash, status TxStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[txID] = status
	return nil
}

func (m *MemoryProgressStore) TryMarkPending(_ context.Context, txID types.Hash) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.status[txID]; ok {
		return false, nil
	}
	m.status[txID] = TxPending
	return true, nil
}

func (m *MemoryProgressStore) Release(_ context.Context, txID types.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.status, txID)
	return nil
}
