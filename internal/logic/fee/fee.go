package fee

import (
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/metadata"
	"nft-escrow-sol/internal/types"

	"github.com/holiman/uint256"
)

// MaxShareTotal 创作者分成百分比之和上限
const MaxShareTotal = 100

type Payout struct {
	Recipient types.Pubkey
	Amount    uint64
}

// Settlement 一次成交的资金拆分结果。
// sum(Creators) + PlatformFee + SellerProceeds == Price 恒成立。
type Settlement struct {
	Price          uint64
	TotalRoyalty   uint64
	Creators       []Payout // 与元数据中的创作者顺序一致，含金额为 0 的条目
	PlatformFee    uint64
	SellerProceeds uint64
}

// Split 按固定顺序计算版税、平台费与卖家所得，全部向下取整：
//
//	totalRoyalty = royaltyBps * price / 10000
//	creatorFee   = share * totalRoyalty / 100   （逐个扣减 remaining）
//	platformFee  = price * platformBps / 10000
//	remaining    = price - sum(creatorFee) - platformFee
//
// 取整误差全部留在 remaining 中。分成之和超过 100 返回 ErrInvalidAccountData，
// remaining 不足以扣减返回 ErrArithmeticOverflow。
func Split(price uint64, royaltyBps uint16, shares []metadata.CreatorShare, platformBps uint64) (*Settlement, error) {
	var shareTotal uint64
	for _, s := range shares {
		shareTotal += uint64(s.SharePercent)
	}
	if shareTotal > MaxShareTotal {
		return nil, domain.ErrInvalidAccountData
	}

	totalRoyalty, ok := mulDiv(uint64(royaltyBps), price, consts.BasisPointsDenominator)
	if !ok {
		return nil, domain.ErrArithmeticOverflow
	}

	s := &Settlement{
		Price:        price,
		TotalRoyalty: totalRoyalty,
		Creators:     make([]Payout, 0, len(shares)),
	}
	remaining := price

	// 1. 创作者版税
	for _, share := range shares {
		creatorFee, ok := mulDiv(uint64(share.SharePercent), totalRoyalty, consts.SharePercentDenominator)
		if !ok || creatorFee > remaining {
			return nil, domain.ErrArithmeticOverflow
		}
		remaining -= creatorFee
		s.Creators = append(s.Creators, Payout{Recipient: share.Address, Amount: creatorFee})
	}

	// 2. 平台手续费
	platformFee, ok := mulDiv(price, platformBps, consts.BasisPointsDenominator)
	if !ok || platformFee > remaining {
		return nil, domain.ErrArithmeticOverflow
	}
	remaining -= platformFee
	s.PlatformFee = platformFee

	// 3. 剩余归卖家
	s.SellerProceeds = remaining
	return s, nil
}

// RoyaltyPaid 实际支付给创作者的总额（不超过 TotalRoyalty）
func (s *Settlement) RoyaltyPaid() uint64 {
	var total uint64
	for _, p := range s.Creators {
		total += p.Amount
	}
	return total
}

// mulDiv 计算 floor(a*b/d)，中间结果使用 256 位，结果超出 u64 时返回 false
func mulDiv(a, b, d uint64) (uint64, bool) {
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	quotient := product.Div(product, uint256.NewInt(d))
	if !quotient.IsUint64() {
		return 0, false
	}
	return quotient.Uint64(), true
}
