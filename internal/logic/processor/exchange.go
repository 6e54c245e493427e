package processor

import (
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/fee"
	"nft-escrow-sol/internal/logic/metadata"
	"nft-escrow-sol/internal/logic/pda"
	"nft-escrow-sol/internal/logic/state"
	"nft-escrow-sol/pkg/logger"
)

// processExchange 买家按挂单价格成交。
//
// 账户顺序：
//
//	0. taker         [signer, writable]
//	1. custody       [writable]
//	2. sellerMain    [writable]
//	3. mint
//	4. escrow        [writable]
//	5. tokenProgram
//	6. systemProgram
//	7. custodian     托管 PDA
//	8. metadata
//	9. vault         平台费率配置
//	10. treasury     [writable]
//	11.. creators    [writable] 与元数据中的创作者顺序一致
//
// 所有校验与资金拆分在第一笔转账之前完成。
func (p *Processor) processExchange(iter *accountIter, amount uint64, svc Services) error {
	accounts, err := iter.nextN(11)
	if err != nil {
		return err
	}
	taker, custody, sellerMain, mint, escrow := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4]
	tokenProgram, systemProgram, custodian, metaInfo := accounts[5], accounts[6], accounts[7], accounts[8]
	vaultInfo, treasury := accounts[9], accounts[10]

	// 1. 买家必须签名
	if !taker.IsSigner {
		return domain.ErrMissingRequiredSignature
	}

	// 2. 只允许整单成交
	custodyState, err := decodeTokenAccount(custody)
	if err != nil {
		return err
	}
	if amount != custodyState.Amount {
		return domain.ErrInvalidInstructionData
	}

	// 3. 挂单记录必须归属本程序
	if !ownedBy(escrow, p.opts.ProgramID) {
		return domain.ErrIncorrectProgramId
	}
	rec, err := state.UnpackEscrowRecord(escrow.Data)
	if err != nil {
		return err
	}
	if !rec.IsInitialized {
		return domain.ErrUninitializedAccount
	}

	// 4. 挂单记录与传入账户逐一比对
	if rec.CustodyAccount != custody.Key || rec.Seller != sellerMain.Key || rec.AssetMint != mint.Key {
		return domain.ErrInvalidAccountData
	}

	// 5. 禁止自成交
	if taker.Key == sellerMain.Key {
		return domain.ErrInvalidAccountData
	}

	// 6. 平台配置必须归属本程序
	if !ownedBy(vaultInfo, p.opts.ProgramID) {
		return domain.ErrIncorrectProgramId
	}

	// 7. 元数据地址必须由 mint 推导得出
	metaAddr, err := pda.MetadataAddress(consts.TokenMetaProgram, rec.AssetMint)
	if err != nil {
		return err
	}
	if metaInfo.Key != metaAddr {
		return domain.ErrInvalidAccountData
	}

	// 8. 国库地址与平台配置一致
	vault, err := state.UnpackPlatformVault(vaultInfo.Data)
	if err != nil {
		return err
	}
	if !vault.IsInitialized {
		return domain.ErrUninitializedAccount
	}
	if vault.Treasury != treasury.Key {
		return domain.ErrInvalidAccountData
	}

	// 9. 计算资金拆分并核对创作者账户
	if metaInfo.Account == nil {
		return domain.ErrInvalidAccountData
	}
	meta, err := metadata.Decode(metaInfo.Data)
	if err != nil {
		logger.Warnf("[Escrow:Exchange] decode metadata %s failed: %v", metaInfo.Key, err)
		return domain.ErrInvalidAccountData
	}
	settlement, err := fee.Split(rec.ExpectedPrice, meta.Data.SellerFeeBasisPoints, meta.Shares(), vault.FeeBasisPoints)
	if err != nil {
		return err
	}
	creators := make([]*domain.AccountInfo, 0, len(settlement.Creators))
	for _, payout := range settlement.Creators {
		info, err := iter.next()
		if err != nil {
			return err
		}
		if info.Key != payout.Recipient {
			return domain.ErrInvalidAccountData
		}
		creators = append(creators, info)
	}

	// 10. 转账：创作者版税 -> 平台手续费 -> 卖家所得
	for i, payout := range settlement.Creators {
		if payout.Amount == 0 {
			continue
		}
		if err := svc.Resources.Transfer(systemProgram, taker, creators[i], payout.Amount); err != nil {
			return err
		}
	}
	if err := svc.Resources.Transfer(systemProgram, taker, treasury, settlement.PlatformFee); err != nil {
		return err
	}
	if err := svc.Resources.Transfer(systemProgram, taker, sellerMain, settlement.SellerProceeds); err != nil {
		return err
	}

	// 11. 托管 PDA 将 custody 权限转给买家
	authority := pda.ProgramAuthority(custodian, pda.CustodianSeeds(p.custodianBump))
	if err := svc.Assets.ReassignAuthority(tokenProgram, custody, authority, taker.Key); err != nil {
		return err
	}

	// 12. 关闭挂单
	if err := p.closeEscrow(escrow, rec); err != nil {
		return err
	}

	logger.Infof("[Escrow:Exchange] escrow=%s, taker=%s, price=%d, royalty=%d, platform=%d, seller=%d",
		escrow.Key, taker.Key, settlement.Price, settlement.RoyaltyPaid(), settlement.PlatformFee, settlement.SellerProceeds)
	return nil
}
