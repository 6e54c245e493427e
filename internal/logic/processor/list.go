package processor

import (
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/pda"
	"nft-escrow-sol/internal/logic/state"
	"nft-escrow-sol/internal/types"
	"nft-escrow-sol/pkg/logger"
)

// processList 卖家挂单。
//
// 账户顺序：
//
//	0. initializer   [signer, writable]
//	1. custody       [writable]   持有 NFT 的 token 账户
//	2. mint
//	3. escrow        [signer, writable] 待创建的挂单记录
//	4. fundingRef    租金 sysvar
//	5. tokenProgram
//	6. systemProgram
func (p *Processor) processList(iter *accountIter, amount uint64, svc Services) error {
	accounts, err := iter.nextN(7)
	if err != nil {
		return err
	}
	initializer, custody, mint, escrow := accounts[0], accounts[1], accounts[2], accounts[3]
	fundingRef, tokenProgram, systemProgram := accounts[4], accounts[5], accounts[6]

	// 1. 挂单人必须签名
	if !initializer.IsSigner {
		return domain.ErrMissingRequiredSignature
	}

	// 2. mint 必须归属 SPL token 程序
	if !ownedBy(mint, consts.TokenProgram) {
		return domain.ErrIncorrectProgramId
	}

	// 3. custody 必须恰好持有 1 个单位，且 mint 一致
	custodyState, err := decodeTokenAccount(custody)
	if err != nil {
		return err
	}
	if custodyState.Amount != consts.NFTSupply {
		logger.Warnf("[Escrow:List] custody %s holds %d units, want %d", custody.Key, custodyState.Amount, consts.NFTSupply)
		return domain.ErrInvalidAccountData
	}
	if types.PubkeyFromCommon(custodyState.Mint) != mint.Key {
		logger.Warnf("[Escrow:List] custody %s mint mismatch", custody.Key)
		return domain.ErrInvalidAccountData
	}

	// 4. 挂单价格必须为正
	if amount == 0 {
		return domain.ErrInvalidInstructionData
	}

	// 5. 创建挂单记录
	if err := svc.Storage.Allocate(systemProgram, fundingRef, initializer, escrow, state.EscrowRecordLen, p.opts.ProgramID); err != nil {
		return err
	}
	rec, err := state.UnpackEscrowRecordUnchecked(escrow.Data)
	if err != nil {
		return err
	}
	rec.IsInitialized = true
	rec.Seller = initializer.Key
	rec.CustodyAccount = custody.Key
	rec.AssetMint = mint.Key
	rec.ExpectedPrice = amount
	if err := rec.Pack(escrow.Data); err != nil {
		return err
	}

	// 6. custody 权限转给托管 PDA
	if err := svc.Assets.ReassignAuthority(tokenProgram, custody, pda.WalletAuthority(initializer), p.custodian); err != nil {
		return err
	}

	logger.Infof("[Escrow:List] seller=%s, mint=%s, price=%d, escrow=%s", initializer.Key, mint.Key, amount, escrow.Key)
	return nil
}
