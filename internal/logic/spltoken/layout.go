package spltoken

import (
	"encoding/binary"
	"fmt"
	"nft-escrow-sol/internal/types"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"
)

// 账户布局:
// https://github.com/solana-program/token/blob/main/program/src/state.rs
const (
	TokenAccountLen = 165
	MintLen         = 82

	ownerOffset  = 32
	amountOffset = 64
	stateOffset  = 108

	accountStateInitialized = 1
)

// NewTokenAccountData 构造已初始化的 token 账户数据（无 delegate / close authority）
func NewTokenAccountData(mint, owner types.Pubkey, amount uint64) []byte {
	data := make([]byte, TokenAccountLen)
	copy(data[0:32], mint[:])
	copy(data[ownerOffset:amountOffset], owner[:])
	binary.LittleEndian.PutUint64(data[amountOffset:amountOffset+8], amount)
	data[stateOffset] = accountStateInitialized
	return data
}

// NewMintData 构造已初始化的 mint 账户数据，无 freeze authority
func NewMintData(authority types.Pubkey, supply uint64, decimals uint8) []byte {
	data := make([]byte, MintLen)
	binary.LittleEndian.PutUint32(data[0:4], 1) // COption::Some
	copy(data[4:36], authority[:])
	binary.LittleEndian.PutUint64(data[36:44], supply)
	data[44] = decimals
	data[45] = 1 // is_initialized
	return data
}

// DecodeTokenAccount 解析 token 账户
func DecodeTokenAccount(data []byte) (sdktoken.TokenAccount, error) {
	acc, err := sdktoken.TokenAccountFromData(data)
	if err != nil {
		return sdktoken.TokenAccount{}, fmt.Errorf("decode token account: %w", err)
	}
	return acc, nil
}

// SetOwner 原地改写 token 账户的 owner 字段
func SetOwner(data []byte, owner types.Pubkey) error {
	if len(data) != TokenAccountLen {
		return fmt.Errorf("invalid token account length: got %d, want %d", len(data), TokenAccountLen)
	}
	copy(data[ownerOffset:amountOffset], owner[:])
	return nil
}
