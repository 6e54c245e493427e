package store

import (
	"context"
	"fmt"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/types"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀
const accountPrefix = "escrow:account"

// RedisStore 账户以 borsh 编码存放在 Redis 字符串中，Save 使用 MULTI/EXEC
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (r *RedisStore) getKey(k types.Pubkey) string {
	return fmt.Sprintf("%s:%s", accountPrefix, k)
}

func (r *RedisStore) Load(ctx context.Context, keys []types.Pubkey) (map[types.Pubkey]*domain.Account, error) {
	out := make(map[types.Pubkey]*domain.Account, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = r.getKey(k)
	}
	vals, err := r.rdb.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget error: %w", err)
	}

	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected redis value type %T for %s", v, redisKeys[i])
		}
		acc, err := decodeAccount([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", keys[i], err)
		}
		out[keys[i]] = acc
	}
	return out, nil
}

func (r *RedisStore) Save(ctx context.Context, accounts map[types.Pubkey]*domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	// 先完成编码，避免事务中途失败
	encoded := make(map[string][]byte, len(accounts))
	var deleted []string
	for k, acc := range accounts {
		if isReclaimed(acc) {
			deleted = append(deleted, r.getKey(k))
			continue
		}
		data, err := encodeAccount(acc)
		if err != nil {
			return err
		}
		encoded[r.getKey(k)] = data
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, data := range encoded {
			pipe.Set(ctx, key, data, 0)
		}
		if len(deleted) > 0 {
			pipe.Del(ctx, deleted...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis tx commit error: %w", err)
	}
	return nil
}

// Close 不关闭外部传入的 client
func (r *RedisStore) Close() error {
	return nil
}
