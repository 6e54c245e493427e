// Package store 账户状态持久化。所有实现保证 Save 整批原子提交。
package store

import (
	"context"
	"fmt"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/types"

	"github.com/near/borsh-go"
)

// AccountStore 账户存储
type AccountStore interface {
	// Load 批量读取账户，不存在的 key 不出现在结果中；返回的账户归调用方所有
	Load(ctx context.Context, keys []types.Pubkey) (map[types.Pubkey]*domain.Account, error)
	// Save 原子写入一批账户；余额与数据均为空的非程序账户视为已回收，直接删除
	Save(ctx context.Context, accounts map[types.Pubkey]*domain.Account) error
	Close() error
}

// isReclaimed 余额为 0 且无数据的账户不再保留
func isReclaimed(acc *domain.Account) bool {
	return acc == nil || (acc.Lamports == 0 && len(acc.Data) == 0 && !acc.Executable)
}

func encodeAccount(acc *domain.Account) ([]byte, error) {
	data, err := borsh.Serialize(*acc)
	if err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	return data, nil
}

func decodeAccount(data []byte) (*domain.Account, error) {
	var acc domain.Account
	if err := borsh.Deserialize(&acc, data); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &acc, nil
}
