package pda

import (
	"fmt"
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/types"

	"github.com/blocto/solana-go-sdk/common"
)

// FindCustodian 计算托管 PDA：seeds = ["escrow"]，program = 本程序
func FindCustodian(programID types.Pubkey) (types.Pubkey, uint8, error) {
	addr, bump, err := common.FindProgramAddress([][]byte{[]byte(consts.EscrowSeed)}, programID.ToCommon())
	if err != nil {
		return types.Pubkey{}, 0, fmt.Errorf("find custodian address: %w", err)
	}
	return types.PubkeyFromCommon(addr), bump, nil
}

// CustodianSeeds 托管 PDA 的完整签名 seeds（含 bump）
func CustodianSeeds(bump uint8) [][]byte {
	return [][]byte{[]byte(consts.EscrowSeed), {bump}}
}

// MetadataAddress 计算 mint 对应的元数据账户地址：
// seeds = ["metadata", metadataProgram, mint]，program = metadataProgram
func MetadataAddress(metadataProgram, mint types.Pubkey) (types.Pubkey, error) {
	seeds := [][]byte{[]byte(consts.MetadataSeed), metadataProgram[:], mint[:]}
	addr, _, err := common.FindProgramAddress(seeds, metadataProgram.ToCommon())
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("find metadata address: %w", err)
	}
	return types.PubkeyFromCommon(addr), nil
}

// VerifySeeds 校验 seeds 在 programID 下推导出的地址是否为 expected
func VerifySeeds(seeds [][]byte, programID, expected types.Pubkey) bool {
	addr, err := common.CreateProgramAddress(seeds, programID.ToCommon())
	if err != nil {
		return false
	}
	return types.PubkeyFromCommon(addr) == expected
}
