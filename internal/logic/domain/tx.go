package domain

import (
	"fmt"
	"nft-escrow-sol/internal/types"

	"github.com/near/borsh-go"
)

// Transaction 表示一笔待执行的交易，Signers 为已完成签名校验的地址集合。
type Transaction struct {
	Signers      []types.Pubkey
	Instructions []Instruction
}

// Encode 交易的 borsh 编码，同时作为签名消息体
func (tx *Transaction) Encode() ([]byte, error) {
	data, err := borsh.Serialize(*tx)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return data, nil
}

// DecodeTransaction 解析 borsh 编码的交易
func DecodeTransaction(data []byte) (*Transaction, error) {
	var tx Transaction
	if err := borsh.Deserialize(&tx, data); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &tx, nil
}

// ID 交易 ID = sha256(borsh(tx))
func (tx *Transaction) ID() (types.Hash, error) {
	data, err := tx.Encode()
	if err != nil {
		return types.Hash{}, err
	}
	return types.HashBytes(data), nil
}

// AccountKeys 按首次出现顺序返回交易涉及的全部账户（含程序地址）
func (tx *Transaction) AccountKeys() []types.Pubkey {
	seen := make(map[types.Pubkey]struct{})
	keys := make([]types.Pubkey, 0, 16)
	add := func(k types.Pubkey) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for _, ix := range tx.Instructions {
		add(ix.ProgramID)
		for _, meta := range ix.Accounts {
			add(meta.Pubkey)
		}
	}
	return keys
}
