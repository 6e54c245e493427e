package store

import (
	"context"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/types"
	"sync"
)

// MemoryStore 进程内存储，用于测试与场景回放
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[types.Pubkey]*domain.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[types.Pubkey]*domain.Account)}
}

func (m *MemoryStore) Load(_ context.Context, keys []types.Pubkey) (map[types.Pubkey]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[types.Pubkey]*domain.Account, len(keys))
	for _, k := range keys {
		if acc, ok := m.accounts[k]; ok {
			out[k] = acc.Clone()
		}
	}
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, accounts map[types.Pubkey]*domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, acc := range accounts {
		if isReclaimed(acc) {
			delete(m.accounts, k)
			continue
		}
		m.accounts[k] = acc.Clone()
	}
	return nil
}

// Len 当前账户数量
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}

func (m *MemoryStore) Close() error {
	return nil
}
