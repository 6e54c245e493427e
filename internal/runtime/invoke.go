package runtime

import (
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/pda"
	"nft-escrow-sol/internal/logic/sysvar"
	"nft-escrow-sol/internal/types"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	sdktoken "github.com/blocto/solana-go-sdk/program/token"
	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// invokeContext 单条指令的执行上下文，同时实现托管程序所需的协作方接口：
// 每次调用都构造真实的 system / token 指令，再分发给内置程序执行。
type invokeContext struct {
	rt        *Runtime
	programID types.Pubkey                         // 当前执行的程序
	accounts  map[types.Pubkey]*domain.AccountInfo // 当前指令可见的账户
}

// invoke 跨程序调用。seeds 非空时，由当前程序派生的 PDA 视为已签名。
func (ic *invokeContext) invoke(ix domain.Instruction, seeds [][]byte) error {
	handler, ok := ic.rt.programs[ix.ProgramID]
	if !ok {
		return domain.ErrUnknownProgram
	}

	var (
		pdaSigner    types.Pubkey
		hasPDASigner bool
	)
	if len(seeds) > 0 {
		addr, err := common.CreateProgramAddress(seeds, ic.programID.ToCommon())
		if err != nil {
			return domain.ErrInvalidArgument
		}
		pdaSigner, hasPDASigner = types.PubkeyFromCommon(addr), true
	}

	infos := make([]*domain.AccountInfo, 0, len(ix.Accounts))
	byKey := make(map[types.Pubkey]*domain.AccountInfo, len(ix.Accounts))
	for _, meta := range ix.Accounts {
		caller, ok := ic.accounts[meta.Pubkey]
		if !ok {
			return domain.ErrNotEnoughAccountKeys
		}
		if meta.IsWritable && !caller.IsWritable {
			return domain.ErrReadonlyDataModified
		}
		signed := caller.IsSigner || (hasPDASigner && meta.Pubkey == pdaSigner)
		if meta.IsSigner && !signed {
			return domain.ErrMissingRequiredSignature
		}
		info := &domain.AccountInfo{
			Key:        meta.Pubkey,
			IsSigner:   signed,
			IsWritable: meta.IsWritable,
			Account:    caller.Account,
		}
		infos = append(infos, info)
		byKey[meta.Pubkey] = info
	}

	inner := &invokeContext{rt: ic.rt, programID: ix.ProgramID, accounts: byKey}
	return handler(inner, &ix, infos)
}

func (ic *invokeContext) ReassignAuthority(program, account *domain.AccountInfo, authority pda.Authority, newAuthority types.Pubkey) error {
	if program.Key != consts.TokenProgram {
		return domain.ErrIncorrectProgramId
	}
	if authority.Account == nil {
		return domain.ErrInvalidArgument
	}
	newAuth := newAuthority.ToCommon()
	ix := sdktoken.SetAuthority(sdktoken.SetAuthorityParam{
		Account:  account.Key.ToCommon(),
		NewAuth:  &newAuth,
		AuthType: sdktoken.AuthorityTypeAccountOwner,
		Auth:     authority.Account.Key.ToCommon(),
	})
	return ic.invoke(fromSDKInstruction(ix), authority.Seeds)
}

func (ic *invokeContext) Transfer(program, from, to *domain.AccountInfo, amount uint64) error {
	if program.Key != consts.SystemProgram {
		return domain.ErrIncorrectProgramId
	}
	ix := system.Transfer(system.TransferParam{
		From:   from.Key.ToCommon(),
		To:     to.Key.ToCommon(),
		Amount: amount,
	})
	return ic.invoke(fromSDKInstruction(ix), nil)
}

func (ic *invokeContext) Allocate(program, fundingRef, payer, account *domain.AccountInfo, space uint64, owner types.Pubkey) error {
	if program.Key != consts.SystemProgram {
		return domain.ErrIncorrectProgramId
	}
	rent, err := rentFrom(fundingRef)
	if err != nil {
		return err
	}
	ix := system.CreateAccount(system.CreateAccountParam{
		From:     payer.Key.ToCommon(),
		New:      account.Key.ToCommon(),
		Owner:    owner.ToCommon(),
		Lamports: rent.MinimumBalance(space),
		Space:    space,
	})
	return ic.invoke(fromSDKInstruction(ix), nil)
}

func (ic *invokeContext) IsFunded(fundingRef, account *domain.AccountInfo) (bool, error) {
	rent, err := rentFrom(fundingRef)
	if err != nil {
		return false, err
	}
	return rent.IsExempt(account.Lamports, uint64(account.DataLen())), nil
}

// rentFrom 从租金 sysvar 账户读取参数
func rentFrom(info *domain.AccountInfo) (sysvar.Rent, error) {
	if info.Key != consts.SysvarRent || info.Account == nil {
		return sysvar.Rent{}, domain.ErrInvalidArgument
	}
	rent, err := sysvar.DecodeRent(info.Data)
	if err != nil {
		return sysvar.Rent{}, domain.ErrInvalidArgument
	}
	return rent, nil
}

func fromSDKInstruction(ix sdktypes.Instruction) domain.Instruction {
	metas := make([]domain.AccountMeta, 0, len(ix.Accounts))
	for _, m := range ix.Accounts {
		metas = append(metas, domain.AccountMeta{
			Pubkey:     types.PubkeyFromCommon(m.PubKey),
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
		})
	}
	return domain.Instruction{
		ProgramID: types.PubkeyFromCommon(ix.ProgramID),
		Accounts:  metas,
		Data:      ix.Data,
	}
}
