package spltoken

import (
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/types"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"
)

// 指令定义:
// https://github.com/solana-program/token/blob/main/program/src/instruction.rs

// ParsedSetAuthority 表示一次 SetAuthority 指令
type ParsedSetAuthority struct {
	Account      types.Pubkey  // 目标账户
	Authority    types.Pubkey  // 当前权限地址
	AuthType     sdktoken.AuthorityType
	NewAuthority *types.Pubkey // nil 表示清除权限
}

// ParseSetAuthority 解析 SetAuthority 指令
// Layout: [0]=instr, [1]=authority_type, [2]=option, [3:35]=new_authority
// accounts = [account, current_authority, signers...]
func ParseSetAuthority(ix *domain.Instruction) (*ParsedSetAuthority, error) {
	if len(ix.Data) < 3 || ix.Data[0] != byte(sdktoken.InstructionSetAuthority) {
		return nil, domain.ErrInvalidInstructionData
	}
	if len(ix.Accounts) < 2 {
		return nil, domain.ErrNotEnoughAccountKeys
	}

	parsed := &ParsedSetAuthority{
		Account:   ix.Accounts[0].Pubkey,
		Authority: ix.Accounts[1].Pubkey,
		AuthType:  sdktoken.AuthorityType(ix.Data[1]),
	}
	switch ix.Data[2] {
	case 0:
	case 1:
		if len(ix.Data) < 35 {
			return nil, domain.ErrInvalidInstructionData
		}
		newAuth, err := types.PubkeyFromBytes(ix.Data[3:35])
		if err != nil {
			return nil, domain.ErrInvalidInstructionData
		}
		parsed.NewAuthority = &newAuth
	default:
		return nil, domain.ErrInvalidInstructionData
	}
	return parsed, nil
}
