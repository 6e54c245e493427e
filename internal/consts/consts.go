package consts

const (
	// EscrowSeed 托管 PDA 的固定 seed
	EscrowSeed = "escrow"
	// MetadataSeed Metaplex 元数据 PDA 的前缀
	MetadataSeed = "metadata"

	// BasisPointsDenominator 1 bps = 1/10000
	BasisPointsDenominator uint64 = 10_000
	// SharePercentDenominator 创作者分成按百分比计
	SharePercentDenominator uint64 = 100

	// NFTSupply 挂单资产必须恰好持有 1 个单位
	NFTSupply uint64 = 1
)
