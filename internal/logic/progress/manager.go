package progress

import (
	"context"
	"nft-escrow-sol/internal/types"
	"nft-escrow-sol/pkg/logger"
)

// StatusStore 交易状态存储
type StatusStore interface {
	GetTxStatus(ctx context.Context, txID types.Hash) (TxStatus, error)
	MarkTxStatus(ctx context.Context, txID types.Hash, status TxStatus) error
	TryMarkPending(ctx context.Context, txID types.Hash) (bool, error)
	Release(ctx context.Context, txID types.Hash) error
}

// ProgressManager 控制交易判重：同一交易 ID 只会被执行一次
type ProgressManager struct {
	store StatusStore
}

func NewProgressManager(store StatusStore) *ProgressManager {
	return &ProgressManager{store: store}
}

// Acquire 判断是否需要处理该交易：
// - 已有结论（Processed / Invalid）直接跳过
// - 其他实例正在处理（Pending）同样跳过
// - 否则抢占 Pending 并返回 true
func (pm *ProgressManager) Acquire(ctx context.Context, txID types.Hash) (bool, TxStatus, error) {
	ok, err := pm.store.TryMarkPending(ctx, txID)
	if err != nil {
		return false, TxUnknown, err
	}
	if ok {
		return true, TxPending, nil
	}

	status, err := pm.store.GetTxStatus(ctx, txID)
	if err != nil {
		return false, TxUnknown, err
	}
	if status == TxUnknown {
		// pending 恰好过期，重新抢占一次
		ok, err = pm.store.TryMarkPending(ctx, txID)
		if err != nil {
			return false, TxUnknown, err
		}
		if ok {
			return true, TxPending, nil
		}
		status = TxPending
	}
	logger.Debugf("[Progress:Acquire] skip tx %s, status=%s", txID, status)
	return false, status, nil
}

// Complete 写入最终状态
func (pm *ProgressManager) Complete(ctx context.Context, txID types.Hash, status TxStatus) error {
	switch status {
	case TxProcessed, TxInvalid:
		return pm.store.MarkTxStatus(ctx, txID, status)
	default:
		return nil // TxUnknown / TxPending 不参与记录
	}
}

// Abort 执行被基础设施错误打断，释放 Pending 以便重试
func (pm *ProgressManager) Abort(ctx context.Context, txID types.Hash) {
	if err := pm.store.Release(ctx, txID); err != nil {
		logger.Warnf("[Progress:Abort] release tx %s failed: %v", txID, err)
	}
}
