// Package ixbuilder 客户端侧构造托管程序指令，账户顺序与程序端严格一致
package ixbuilder

import (
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/instruction"
	"nft-escrow-sol/internal/logic/pda"
	"nft-escrow-sol/internal/types"
)

func signerWritable(k types.Pubkey) domain.AccountMeta {
	return domain.AccountMeta{Pubkey: k, IsSigner: true, IsWritable: true}
}

func signer(k types.Pubkey) domain.AccountMeta {
	return domain.AccountMeta{Pubkey: k, IsSigner: true}
}

func writable(k types.Pubkey) domain.AccountMeta {
	return domain.AccountMeta{Pubkey: k, IsWritable: true}
}

func readonly(k types.Pubkey) domain.AccountMeta {
	return domain.AccountMeta{Pubkey: k}
}

type ListParams struct {
	ProgramID   types.Pubkey
	Initializer types.Pubkey
	Custody     types.Pubkey
	Mint        types.Pubkey
	Escrow      types.Pubkey // 新账户，需要签名
	Price       uint64
}

func List(p ListParams) domain.Instruction {
	return domain.Instruction{
		ProgramID: p.ProgramID,
		Accounts: []domain.AccountMeta{
			signerWritable(p.Initializer),
			writable(p.Custody),
			readonly(p.Mint),
			signerWritable(p.Escrow),
			readonly(consts.SysvarRent),
			readonly(consts.TokenProgram),
			readonly(consts.SystemProgram),
		},
		Data: instruction.List(p.Price).Encode(),
	}
}

type ExchangeParams struct {
	ProgramID types.Pubkey
	Taker     types.Pubkey
	Custody   types.Pubkey
	Seller    types.Pubkey
	Mint      types.Pubkey
	Escrow    types.Pubkey
	Vault     types.Pubkey
	Treasury  types.Pubkey
	Creators  []types.Pubkey // 与元数据中的创作者顺序一致
	Amount    uint64         // custody 中的持有数量，NFT 恒为 1
}

// Exchange 托管 PDA 与元数据地址由参数推导
func Exchange(p ExchangeParams) (domain.Instruction, error) {
	custodian, _, err := pda.FindCustodian(p.ProgramID)
	if err != nil {
		return domain.Instruction{}, err
	}
	metaAddr, err := pda.MetadataAddress(consts.TokenMetaProgram, p.Mint)
	if err != nil {
		return domain.Instruction{}, err
	}

	accounts := []domain.AccountMeta{
		signerWritable(p.Taker),
		writable(p.Custody),
		writable(p.Seller),
		readonly(p.Mint),
		writable(p.Escrow),
		readonly(consts.TokenProgram),
		readonly(consts.SystemProgram),
		readonly(custodian),
		readonly(metaAddr),
		readonly(p.Vault),
		writable(p.Treasury),
	}
	for _, c := range p.Creators {
		accounts = append(accounts, writable(c))
	}
	return domain.Instruction{
		ProgramID: p.ProgramID,
		Accounts:  accounts,
		Data:      instruction.Exchange(p.Amount).Encode(),
	}, nil
}

type CancelParams struct {
	ProgramID types.Pubkey
	Seller    types.Pubkey
	Custody   types.Pubkey
	Escrow    types.Pubkey
}

func Cancel(p CancelParams) (domain.Instruction, error) {
	custodian, _, err := pda.FindCustodian(p.ProgramID)
	if err != nil {
		return domain.Instruction{}, err
	}
	return domain.Instruction{
		ProgramID: p.ProgramID,
		Accounts: []domain.AccountMeta{
			signer(p.Seller),
			writable(p.Custody),
			writable(p.Escrow),
			readonly(consts.TokenProgram),
			readonly(custodian),
		},
		Data: instruction.Cancel().Encode(),
	}, nil
}

type UpdatePlatformParams struct {
	ProgramID types.Pubkey
	Admin     types.Pubkey
	Vault     types.Pubkey
	Treasury  types.Pubkey
	FeeBps    uint64
}

func UpdatePlatform(p UpdatePlatformParams) domain.Instruction {
	return domain.Instruction{
		ProgramID: p.ProgramID,
		Accounts: []domain.AccountMeta{
			signer(p.Admin),
			writable(p.Vault),
			readonly(consts.SysvarRent),
			readonly(p.Treasury),
		},
		Data: instruction.AdminUpdate(p.FeeBps).Encode(),
	}
}
