package fee

import (
	"math"
	"math/rand"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/metadata"
	"nft-escrow-sol/internal/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitConcreteScenario(t *testing.T) {
	creator := types.Pubkey{1}
	s, err := Split(123, 4000, []metadata.CreatorShare{{Address: creator, SharePercent: 70}}, 250)
	require.NoError(t, err)

	assert.Equal(t, uint64(49), s.TotalRoyalty)
	require.Len(t, s.Creators, 1)
	assert.Equal(t, Payout{Recipient: creator, Amount: 34}, s.Creators[0])
	assert.Equal(t, uint64(3), s.PlatformFee)
	assert.Equal(t, uint64(86), s.SellerProceeds)
}

func TestSplitTable(t *testing.T) {
	tests := []struct {
		name        string
		price       uint64
		royaltyBps  uint16
		shares      []uint8
		platformBps uint64
		creators    []uint64
		platform    uint64
		seller      uint64
	}{
		{"no fees", 1000, 0, nil, 0, []uint64{}, 0, 1000},
		{"platform only", 10_000, 0, nil, 250, []uint64{}, 250, 9750},
		{"zero share creator", 1000, 1000, []uint8{0, 100}, 0, []uint64{0, 100}, 0, 900},
		{"rounding residue to seller", 999, 1000, []uint8{50, 50}, 100, []uint64{49, 49}, 9, 892},
		{"full royalty", 500, 10_000, []uint8{100}, 0, []uint64{500}, 0, 0},
		{"full platform", 500, 0, nil, 10_000, []uint64{}, 500, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := make([]metadata.CreatorShare, len(tt.shares))
			for i, p := range tt.shares {
				shares[i] = metadata.CreatorShare{Address: types.Pubkey{byte(i + 1)}, SharePercent: p}
			}
			s, err := Split(tt.price, tt.royaltyBps, shares, tt.platformBps)
			require.NoError(t, err)

			amounts := make([]uint64, 0, len(s.Creators))
			for _, c := range s.Creators {
				amounts = append(amounts, c.Amount)
			}
			assert.Equal(t, tt.creators, amounts)
			assert.Equal(t, tt.platform, s.PlatformFee)
			assert.Equal(t, tt.seller, s.SellerProceeds)
		})
	}
}

func TestSplitConservation(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		price := r.Uint64() >> uint(r.Intn(64))
		royaltyBps := uint16(r.Intn(10_001))
		platformBps := uint64(r.Intn(10_001))
		if uint64(royaltyBps)+platformBps > 10_000 {
			platformBps = 10_000 - uint64(royaltyBps)
		}

		var shares []metadata.CreatorShare
		left := 100
		for n := r.Intn(5); n > 0 && left > 0; n-- {
			p := r.Intn(left + 1)
			left -= p
			shares = append(shares, metadata.CreatorShare{Address: types.Pubkey{byte(n)}, SharePercent: uint8(p)})
		}

		s, err := Split(price, royaltyBps, shares, platformBps)
		require.NoError(t, err)
		assert.LessOrEqual(t, s.RoyaltyPaid(), s.TotalRoyalty)
		assert.Equal(t, price, s.RoyaltyPaid()+s.PlatformFee+s.SellerProceeds,
			"price=%d royalty=%d platform=%d", price, royaltyBps, platformBps)
	}
}

func TestSplitLargePriceDoesNotWrap(t *testing.T) {
	s, err := Split(math.MaxUint64, 10_000, []metadata.CreatorShare{{SharePercent: 100}}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), s.Creators[0].Amount)
	assert.Equal(t, uint64(0), s.SellerProceeds)
}

func TestSplitShareSumExceeded(t *testing.T) {
	shares := []metadata.CreatorShare{{SharePercent: 60}, {SharePercent: 41}}
	_, err := Split(1000, 500, shares, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAccountData)
}

func TestSplitRemainderUnderflow(t *testing.T) {
	// 版税与平台费合计超过成交价
	_, err := Split(1000, 10_000, []metadata.CreatorShare{{SharePercent: 100}}, 10)
	assert.ErrorIs(t, err, domain.ErrArithmeticOverflow)

	_, err = Split(10_000, 0, nil, 10_001)
	assert.ErrorIs(t, err, domain.ErrArithmeticOverflow)
}
