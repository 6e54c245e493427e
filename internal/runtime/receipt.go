package runtime

import (
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/types"
)

// AccountChange 交易前后余额变化
type AccountChange struct {
	Key            types.Pubkey `yaml:"key"`
	LamportsBefore uint64       `yaml:"lamports_before"`
	LamportsAfter  uint64       `yaml:"lamports_after"`
}

// Receipt 交易执行结果。Success 为 false 时所有变更均已丢弃。
type Receipt struct {
	TxID    types.Hash      `yaml:"tx_id"`
	Success bool            `yaml:"success"`
	Code    uint32          `yaml:"code,omitempty"`
	Error   string          `yaml:"error,omitempty"`
	Changes []AccountChange `yaml:"changes,omitempty"`
}

func failedReceipt(txID types.Hash, err error) *Receipt {
	r := &Receipt{TxID: txID, Error: err.Error()}
	if pe, ok := domain.ProgramErrorOf(err); ok {
		r.Code = pe.Code()
	}
	return r
}
