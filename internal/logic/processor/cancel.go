package processor

import (
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/pda"
	"nft-escrow-sol/internal/logic/state"
	"nft-escrow-sol/pkg/logger"
)

// processCancel 卖家撤单，custody 权限归还卖家。
//
// 账户顺序：
//
//	0. caller        [signer]
//	1. custody       [writable]
//	2. escrow        [writable]
//	3. tokenProgram
//	4. custodian     托管 PDA
func (p *Processor) processCancel(iter *accountIter, svc Services) error {
	accounts, err := iter.nextN(5)
	if err != nil {
		return err
	}
	caller, custody, escrow, tokenProgram, custodian := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4]

	if !caller.IsSigner {
		return domain.ErrMissingRequiredSignature
	}
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
	if rec.Seller != caller.Key || rec.CustodyAccount != custody.Key {
		return domain.ErrInvalidAccountData
	}

	authority := pda.ProgramAuthority(custodian, pda.CustodianSeeds(p.custodianBump))
	if err := svc.Assets.ReassignAuthority(tokenProgram, custody, authority, caller.Key); err != nil {
		return err
	}
	if err := p.closeEscrow(escrow, rec); err != nil {
		return err
	}

	logger.Infof("[Escrow:Cancel] escrow=%s, seller=%s", escrow.Key, caller.Key)
	return nil
}
