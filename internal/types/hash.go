package types

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// Hash 交易 ID 等 32 字节摘要
type Hash [32]byte

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) Equals(other Hash) bool {
	return h == other
}

func HashFromBase58(s string) (Hash, error) {
	var h Hash
	data, err := base58.Decode(s)
	if err != nil {
		return h, err
	}
	if len(data) != 32 {
		return h, fmt.Errorf("invalid hash length: got %d, want 32", len(data))
	}
	copy(h[:], data)
	return h, nil
}

// HashBytes 对任意字节做 sha256
func HashBytes(b []byte) Hash {
	return sha256.Sum256(b)
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}
