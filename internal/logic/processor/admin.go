package processor

import (
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/state"
	"nft-escrow-sol/pkg/logger"
)

// processAdminUpdate 管理员覆盖平台配置（国库地址与费率 bps）。
//
// 账户顺序：
//
//	0. caller        [signer]
//	1. vault         [writable]
//	2. fundingRef    租金 sysvar
//	3. treasury
func (p *Processor) processAdminUpdate(iter *accountIter, amount uint64, svc Services) error {
	accounts, err := iter.nextN(4)
	if err != nil {
		return err
	}
	caller, vaultInfo, fundingRef, treasury := accounts[0], accounts[1], accounts[2], accounts[3]

	if !caller.IsSigner {
		return domain.ErrMissingRequiredSignature
	}
	if caller.Key != p.opts.AdminAuthority {
		logger.Warnf("[Escrow:AdminUpdate] unauthorized caller %s", caller.Key)
		return domain.ErrInvalidAccountData
	}
	if !ownedBy(vaultInfo, p.opts.ProgramID) {
		return domain.ErrIncorrectProgramId
	}

	funded, err := svc.Storage.IsFunded(fundingRef, vaultInfo)
	if err != nil {
		return err
	}
	if !funded {
		return domain.ErrInvalidInstructionData
	}
	if amount > MaxPlatformFeeBps {
		return domain.ErrInvalidInstructionData
	}

	vault, err := state.UnpackPlatformVaultUnchecked(vaultInfo.Data)
	if err != nil {
		return err
	}
	vault.IsInitialized = true
	vault.Treasury = treasury.Key
	vault.FeeBasisPoints = amount
	if err := vault.Pack(vaultInfo.Data); err != nil {
		return err
	}

	logger.Infof("[Escrow:AdminUpdate] vault=%s, treasury=%s, fee_bps=%d", vaultInfo.Key, treasury.Key, amount)
	return nil
}
