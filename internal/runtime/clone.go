package runtime

import (
	"context"
	"fmt"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/store"
	"nft-escrow-sol/internal/types"
	"nft-escrow-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/client"
)

// CloneAccounts 从 RPC 节点拉取账户写入本地存储，链上不存在的账户跳过。返回写入数量。
func CloneAccounts(ctx context.Context, rpc *client.Client, st store.AccountStore, keys []types.Pubkey) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	addrs := make([]string, len(keys))
	for i, k := range keys {
		addrs[i] = k.String()
	}

	infos, err := rpc.GetMultipleAccounts(ctx, addrs)
	if err != nil {
		return 0, fmt.Errorf("get multiple accounts: %w", err)
	}
	if len(infos) != len(keys) {
		return 0, fmt.Errorf("rpc returned %d accounts, want %d", len(infos), len(keys))
	}

	accounts := make(map[types.Pubkey]*domain.Account, len(keys))
	for i, info := range infos {
		if info.Lamports == 0 && len(info.Data) == 0 {
			logger.Warnf("[Runtime:Clone] account %s not found on chain", keys[i])
			continue
		}
		accounts[keys[i]] = &domain.Account{
			Lamports:   info.Lamports,
			Owner:      types.PubkeyFromCommon(info.Owner),
			Executable: info.Executable,
			Data:       info.Data,
		}
	}
	if err := st.Save(ctx, accounts); err != nil {
		return 0, err
	}
	logger.Infof("[Runtime:Clone] cloned %d/%d accounts", len(accounts), len(keys))
	return len(accounts), nil
}
