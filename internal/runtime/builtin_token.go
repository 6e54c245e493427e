package runtime

import (
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/spltoken"
	"nft-escrow-sol/internal/types"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"
)

func registerTokenProgram(m map[types.Pubkey]programHandler) {
	m[consts.TokenProgram] = handleTokenInstruction
}

// handleTokenInstruction 仅支持 SetAuthority(AccountOwner)
func handleTokenInstruction(_ *invokeContext, ix *domain.Instruction, accounts []*domain.AccountInfo) error {
	if len(ix.Data) == 0 {
		return domain.ErrInvalidInstructionData
	}

	switch ix.Data[0] {
	case byte(sdktoken.InstructionSetAuthority):
		return setAccountOwner(ix, accounts)
	default:
		return domain.ErrInvalidInstructionData
	}
}

func setAccountOwner(ix *domain.Instruction, accounts []*domain.AccountInfo) error {
	parsed, err := spltoken.ParseSetAuthority(ix)
	if err != nil {
		return err
	}
	if parsed.AuthType != sdktoken.AuthorityTypeAccountOwner || parsed.NewAuthority == nil {
		return domain.ErrInvalidArgument
	}
	account, authority := accounts[0], accounts[1]

	if account.Owner != consts.TokenProgram {
		return domain.ErrIncorrectProgramId
	}
	state, err := spltoken.DecodeTokenAccount(account.Data)
	if err != nil {
		return domain.ErrInvalidAccountData
	}
	if types.PubkeyFromCommon(state.Owner) != authority.Key {
		return domain.ErrOwnerMismatch
	}
	if !authority.IsSigner {
		return domain.ErrMissingRequiredSignature
	}
	if err := spltoken.SetOwner(account.Data, *parsed.NewAuthority); err != nil {
		return domain.ErrInvalidAccountData
	}
	return nil
}
