package progress

import (
	"context"
	"errors"
	"fmt"
	"nft-escrow-sol/internal/types"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisProgressStore 管理 Redis 中的交易状态记录（幂等控制）
type RedisProgressStore struct {
	rdb *redis.Client
}

// Redis key 前缀
const txPrefix = "progress:tx"

// 各状态的 TTL
const (
	doneTTL    = 7 * 24 * time.Hour
	pendingTTL = 2 * time.Minute
)

// NewRedisProgressStore 创建 Redis 判重管理器
func NewRedisProgressStore(rdb *redis.Client) *RedisProgressStore {
	return &RedisProgressStore{rdb: rdb}
}

func (r *RedisProgressStore) getKey(txID types.Hash) string {
	return fmt.Sprintf("%s:%s", txPrefix, txID)
}

// pending 使用短 TTL，过期后可被重新抢占
func (r *RedisProgressStore) getTTL(status TxStatus) time.Duration {
	if status == TxPending {
		return pendingTTL
	}
	return doneTTL
}

// GetTxStatus 获取交易的状态（Unknown / Processed / Invalid / Pending）
func (r *RedisProgressStore) GetTxStatus(ctx context.Context, txID types.Hash) (TxStatus, error) {
	val, err := r.rdb.Get(ctx, r.getKey(txID)).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return TxUnknown, nil
	case err != nil:
		return TxUnknown, fmt.Errorf("redis get error: %w", err)
	case val == int(TxProcessed):
		return TxProcessed, nil
	case val == int(TxInvalid):
		return TxInvalid, nil
	case val == int(TxPending):
		return TxPending, nil
	default:
		return TxUnknown, nil // 容错处理
	}
}

// MarkTxStatus 通用设置交易状态
func (r *RedisProgressStore) MarkTxStatus(ctx context.Context, txID types.Hash, status TxStatus) error {
	return r.rdb.Set(ctx, r.getKey(txID), int(status), r.getTTL(status)).Err()
}

// TryMarkPending 仅在 key 不存在时写入 Pending，返回是否抢占成功
func (r *RedisProgressStore) TryMarkPending(ctx context.Context, txID types.Hash) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.getKey(txID), int(TxPending), pendingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx error: %w", err)
	}
	return ok, nil
}

// Release 删除 Pending 标记，允许稍后重试
func (r *RedisProgressStore) Release(ctx context.Context, txID types.Hash) error {
	return r.rdb.Del(ctx, r.getKey(txID)).Err()
}
