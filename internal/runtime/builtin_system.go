package runtime

import (
	"encoding/binary"
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/types"

	"github.com/blocto/solana-go-sdk/program/system"
)

// 指令定义:
// https://github.com/solana-labs/solana/blob/master/sdk/program/src/system_instruction.rs

// maxPermittedDataLength 单个账户数据上限 10MiB
const maxPermittedDataLength = 10 * 1024 * 1024

func registerSystemProgram(m map[types.Pubkey]programHandler) {
	m[consts.SystemProgram] = handleSystemInstruction
}

func handleSystemInstruction(_ *invokeContext, ix *domain.Instruction, accounts []*domain.AccountInfo) error {
	if len(ix.Data) < 4 {
		return domain.ErrInvalidInstructionData
	}

	switch system.Instruction(binary.LittleEndian.Uint32(ix.Data[:4])) {
	case system.InstructionCreateAccount:
		// Layout: [0:4]=instr, [4:12]=lamports, [12:20]=space, [20:52]=owner
		// accounts = [from, new]
		if len(ix.Data) < 52 {
			return domain.ErrInvalidInstructionData
		}
		if len(accounts) < 2 {
			return domain.ErrNotEnoughAccountKeys
		}
		owner, err := types.PubkeyFromBytes(ix.Data[20:52])
		if err != nil {
			return domain.ErrInvalidInstructionData
		}
		return createAccount(accounts[0], accounts[1],
			binary.LittleEndian.Uint64(ix.Data[4:12]),
			binary.LittleEndian.Uint64(ix.Data[12:20]),
			owner)

	case system.InstructionTransfer:
		// Layout: [0:4]=instr, [4:12]=lamports
		// accounts = [from, to]
		if len(ix.Data) < 12 {
			return domain.ErrInvalidInstructionData
		}
		if len(accounts) < 2 {
			return domain.ErrNotEnoughAccountKeys
		}
		return transferLamports(accounts[0], accounts[1], binary.LittleEndian.Uint64(ix.Data[4:12]))

	default:
		return domain.ErrInvalidInstructionData
	}
}

func createAccount(from, to *domain.AccountInfo, lamports, space uint64, owner types.Pubkey) error {
	if !from.IsSigner || !to.IsSigner {
		return domain.ErrMissingRequiredSignature
	}
	if space > maxPermittedDataLength {
		return domain.ErrInvalidArgument
	}
	if to.Lamports != 0 || len(to.Data) != 0 || to.Owner != consts.SystemProgram {
		return domain.ErrAccountAlreadyInUse
	}
	if err := debit(from, lamports); err != nil {
		return err
	}
	to.Lamports = lamports
	to.Data = make([]byte, space)
	to.Owner = owner
	return nil
}

func transferLamports(from, to *domain.AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		return domain.ErrMissingRequiredSignature
	}
	if err := debit(from, lamports); err != nil {
		return err
	}
	to.Lamports += lamports
	return nil
}

// debit 只允许从不带数据的系统账户扣款
func debit(from *domain.AccountInfo, lamports uint64) error {
	if from.Owner != consts.SystemProgram || len(from.Data) != 0 {
		return domain.ErrInvalidArgument
	}
	if from.Lamports < lamports {
		return domain.ErrInsufficientFunds
	}
	from.Lamports -= lamports
	return nil
}
