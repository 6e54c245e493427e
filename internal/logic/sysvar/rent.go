package sysvar

import (
	"fmt"

	"github.com/near/borsh-go"
)

const (
	// AccountStorageOverhead 每个账户在字节数之外额外计费的元数据开销
	AccountStorageOverhead uint64 = 128

	DefaultLamportsPerByteYear uint64  = 3480
	DefaultExemptionThreshold  float64 = 2.0
	DefaultBurnPercent         uint8   = 50
)

// Rent 租金参数，与链上 rent sysvar 的 bincode 布局一致
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         uint8
}

func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
		BurnPercent:         DefaultBurnPercent,
	}
}

// MinimumBalance 数据长度为 size 的账户免租所需的最低余额
func (r Rent) MinimumBalance(size uint64) uint64 {
	bytes := AccountStorageOverhead + size
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

func (r Rent) IsExempt(lamports uint64, size uint64) bool {
	return lamports >= r.MinimumBalance(size)
}

func (r Rent) Encode() []byte {
	data, err := borsh.Serialize(r)
	if err != nil {
		// 定长字段，序列化不会失败
		panic(fmt.Sprintf("encode rent: %v", err))
	}
	return data
}

func DecodeRent(data []byte) (Rent, error) {
	var r Rent
	if err := borsh.Deserialize(&r, data); err != nil {
		return Rent{}, fmt.Errorf("decode rent: %w", err)
	}
	return r, nil
}
