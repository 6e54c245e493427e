package state

import (
	"math/rand"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPubkey(r *rand.Rand) types.Pubkey {
	var p types.Pubkey
	r.Read(p[:])
	return p
}

func TestEscrowRecordRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		rec := EscrowRecord{
			IsInitialized:  i%2 == 0,
			Seller:         randomPubkey(r),
			CustodyAccount: randomPubkey(r),
			AssetMint:      randomPubkey(r),
			ExpectedPrice:  r.Uint64(),
		}
		got, err := UnpackEscrowRecord(rec.Bytes())
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	}
}

func TestEscrowRecordLayout(t *testing.T) {
	rec := EscrowRecord{
		IsInitialized:  true,
		Seller:         types.Pubkey{1},
		CustodyAccount: types.Pubkey{2},
		AssetMint:      types.Pubkey{3},
		ExpectedPrice:  0x0102030405060708,
	}
	buf := rec.Bytes()
	require.Len(t, buf, 105)
	assert.Equal(t, byte(1), buf[0])
	assert.Equal(t, byte(1), buf[1])
	assert.Equal(t, byte(2), buf[33])
	assert.Equal(t, byte(3), buf[65])
	assert.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, buf[97:105])
}

func TestUnpackEscrowRecordErrors(t *testing.T) {
	_, err := UnpackEscrowRecord(make([]byte, 104))
	assert.ErrorIs(t, err, domain.ErrInvalidAccountData)

	_, err = UnpackEscrowRecord(make([]byte, 106))
	assert.ErrorIs(t, err, domain.ErrInvalidAccountData)

	buf := make([]byte, EscrowRecordLen)
	buf[0] = 2
	_, err = UnpackEscrowRecord(buf)
	assert.ErrorIs(t, err, domain.ErrInvalidAccountData)

	// unchecked 只看长度
	rec, err := UnpackEscrowRecordUnchecked(buf)
	require.NoError(t, err)
	assert.False(t, rec.IsInitialized)

	_, err = UnpackEscrowRecordUnchecked(buf[:10])
	assert.ErrorIs(t, err, domain.ErrInvalidAccountData)
}

func TestEscrowRecordPackWrongSize(t *testing.T) {
	err := EscrowRecord{}.Pack(make([]byte, 41))
	assert.ErrorIs(t, err, domain.ErrAccountDataTooSmall)
}

func TestPlatformVaultRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		v := PlatformVault{
			IsInitialized:  i%3 != 0,
			Treasury:       randomPubkey(r),
			FeeBasisPoints: r.Uint64(),
		}
		got, err := UnpackPlatformVault(v.Bytes())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestPlatformVaultErrors(t *testing.T) {
	_, err := UnpackPlatformVault(make([]byte, 40))
	assert.ErrorIs(t, err, domain.ErrInvalidAccountData)

	buf := PlatformVault{IsInitialized: true, FeeBasisPoints: 250}.Bytes()
	buf[0] = 0xff
	_, err = UnpackPlatformVault(buf)
	assert.ErrorIs(t, err, domain.ErrInvalidAccountData)

	v, err := UnpackPlatformVaultUnchecked(buf)
	require.NoError(t, err)
	assert.False(t, v.IsInitialized)
	assert.Equal(t, uint64(250), v.FeeBasisPoints)

	assert.ErrorIs(t, PlatformVault{}.Pack(make([]byte, 105)), domain.ErrAccountDataTooSmall)
}
