package store

import (
	"context"
	"fmt"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/types"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketAccounts = []byte("accounts")

// BoltStore 单文件账户存储，Save 在一个 bolt 写事务内完成
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAccounts)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bolt bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load(_ context.Context, keys []types.Pubkey) (map[types.Pubkey]*domain.Account, error) {
	out := make(map[types.Pubkey]*domain.Account, len(keys))
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketAccounts)
		for _, k := range keys {
			raw := bucket.Get(k[:])
			if raw == nil {
				continue
			}
			// raw 只在事务内有效，decode 会复制数据
			acc, err := decodeAccount(raw)
			if err != nil {
				return fmt.Errorf("account %s: %w", k, err)
			}
			out[k] = acc
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltStore) Save(_ context.Context, accounts map[types.Pubkey]*domain.Account) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketAccounts)
		for k, acc := range accounts {
			key := k
			if isReclaimed(acc) {
				if err := bucket.Delete(key[:]); err != nil {
					return err
				}
				continue
			}
			data, err := encodeAccount(acc)
			if err != nil {
				return err
			}
			if err := bucket.Put(key[:], data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
