// Package testkit 测试用账户构造工具
package testkit

import (
	"fmt"
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/metadata"
	"nft-escrow-sol/internal/logic/spltoken"
	"nft-escrow-sol/internal/logic/state"
	"nft-escrow-sol/internal/logic/sysvar"
	"nft-escrow-sol/internal/types"
	"sync/atomic"
)

var pubkeySeq atomic.Uint64

// NewPubkey 返回进程内唯一的地址（确定性，按调用顺序生成）
func NewPubkey() types.Pubkey {
	n := pubkeySeq.Add(1)
	return types.Pubkey(types.HashBytes([]byte(fmt.Sprintf("testkit-pubkey-%d", n))))
}

func rentExempt(size int) uint64 {
	return sysvar.DefaultRent().MinimumBalance(uint64(size))
}

// Wallet 系统账户
func Wallet(lamports uint64) *domain.Account {
	return &domain.Account{Lamports: lamports, Owner: consts.SystemProgram}
}

// Program 可执行程序账户
func Program() *domain.Account {
	return &domain.Account{Lamports: 1, Owner: consts.SystemProgram, Executable: true}
}

func Mint(authority types.Pubkey) *domain.Account {
	return &domain.Account{
		Lamports: rentExempt(spltoken.MintLen),
		Owner:    consts.TokenProgram,
		Data:     spltoken.NewMintData(authority, consts.NFTSupply, 0),
	}
}

func TokenAccount(mint, owner types.Pubkey, amount uint64) *domain.Account {
	return &domain.Account{
		Lamports: rentExempt(spltoken.TokenAccountLen),
		Owner:    consts.TokenProgram,
		Data:     spltoken.NewTokenAccountData(mint, owner, amount),
	}
}

func Metadata(mint types.Pubkey, sellerFeeBps uint16, shares []metadata.CreatorShare) *domain.Account {
	data, err := metadata.NewRecord(mint, sellerFeeBps, shares).Encode()
	if err != nil {
		panic(err)
	}
	return &domain.Account{
		Lamports: rentExempt(len(data)),
		Owner:    consts.TokenMetaProgram,
		Data:     data,
	}
}

func RentSysvar() *domain.Account {
	data := sysvar.DefaultRent().Encode()
	return &domain.Account{Lamports: rentExempt(len(data)), Owner: consts.SysvarOwner, Data: data}
}

func Escrow(programID types.Pubkey, rec state.EscrowRecord) *domain.Account {
	return &domain.Account{
		Lamports: rentExempt(state.EscrowRecordLen),
		Owner:    programID,
		Data:     rec.Bytes(),
	}
}

// Vault 平台配置账户，lamports 为 0 时按免租额度填充
func Vault(programID types.Pubkey, v state.PlatformVault, lamports uint64) *domain.Account {
	if lamports == 0 {
		lamports = rentExempt(state.PlatformVaultLen)
	}
	return &domain.Account{Lamports: lamports, Owner: programID, Data: v.Bytes()}
}

// Info 构造传给程序的账户视图
func Info(key types.Pubkey, acc *domain.Account, signer, writable bool) *domain.AccountInfo {
	return &domain.AccountInfo{Key: key, IsSigner: signer, IsWritable: writable, Account: acc}
}

// TokenOwner 读取 token 账户当前 owner
func TokenOwner(acc *domain.Account) types.Pubkey {
	tokenAcc, err := spltoken.DecodeTokenAccount(acc.Data)
	if err != nil {
		panic(err)
	}
	return types.PubkeyFromCommon(tokenAcc.Owner)
}
