package consts

import "nft-escrow-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	//  Programs
	SystemProgramStr      = "11111111111111111111111111111111"
	TokenProgramStr       = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	TokenMetaProgramIdStr = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

	// Sysvars
	SysvarOwnerStr = "Sysvar1111111111111111111111111111111111111"
	SysvarRentStr  = "SysvarRent111111111111111111111111111111111"
)

// 公钥形式的地址常量（types.Pubkey），用于链上比对
var (
	SystemProgram    = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram     = types.PubkeyFromBase58(TokenProgramStr)
	TokenMetaProgram = types.PubkeyFromBase58(TokenMetaProgramIdStr)

	SysvarOwner = types.PubkeyFromBase58(SysvarOwnerStr)
	SysvarRent  = types.PubkeyFromBase58(SysvarRentStr)
)
