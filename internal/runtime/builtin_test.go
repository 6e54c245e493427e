package runtime

import (
	"encoding/binary"
	"math"
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/spltoken"
	"nft-escrow-sol/internal/testkit"
	"nft-escrow-sol/internal/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferData(amount uint64) []byte {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[:4], 2)
	binary.LittleEndian.PutUint64(data[4:], amount)
	return data
}

func TestSystemTransfer(t *testing.T) {
	from, to := types.Pubkey{1}, types.Pubkey{2}
	fromInfo := testkit.Info(from, testkit.Wallet(10), true, true)
	toInfo := testkit.Info(to, testkit.Wallet(0), false, true)

	err := handleSystemInstruction(nil, &domain.Instruction{ProgramID: consts.SystemProgram, Data: transferData(4)},
		[]*domain.AccountInfo{fromInfo, toInfo})
	require.NoError(t, err)
	assert.Equal(t, uint64(6), fromInfo.Lamports)
	assert.Equal(t, uint64(4), toInfo.Lamports)
}

func TestSystemRejectsDebitFromDataAccount(t *testing.T) {
	from := testkit.Info(types.Pubkey{1}, testkit.TokenAccount(types.Pubkey{9}, types.Pubkey{1}, 1), true, true)
	to := testkit.Info(types.Pubkey{2}, testkit.Wallet(0), false, true)

	err := handleSystemInstruction(nil, &domain.Instruction{Data: transferData(1)}, []*domain.AccountInfo{from, to})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	err = handleSystemInstruction(nil, &domain.Instruction{Data: []byte{9, 0, 0, 0}}, []*domain.AccountInfo{from, to})
	assert.ErrorIs(t, err, domain.ErrInvalidInstructionData)
}

func TestCreateAccountRejectsExisting(t *testing.T) {
	payer := testkit.Info(types.Pubkey{1}, testkit.Wallet(1_000_000_000), true, true)
	existing := testkit.Info(types.Pubkey{2}, testkit.Wallet(5), true, true)
	assert.ErrorIs(t, createAccount(payer, existing, 10, 10, types.Pubkey{3}), domain.ErrAccountAlreadyInUse)

	fresh := testkit.Info(types.Pubkey{4}, &domain.Account{Owner: consts.SystemProgram}, true, true)
	require.NoError(t, createAccount(payer, fresh, 10, 7, types.Pubkey{3}))
	assert.Equal(t, types.Pubkey{3}, fresh.Owner)
	assert.Len(t, fresh.Data, 7)
	assert.Equal(t, uint64(10), fresh.Lamports)
}

func TestCreateAccountRejectsOversizedSpace(t *testing.T) {
	payer := testkit.Info(types.Pubkey{1}, testkit.Wallet(1_000_000_000), true, true)
	for _, space := range []uint64{maxPermittedDataLength + 1, 1 << 36, math.MaxUint64} {
		fresh := testkit.Info(types.Pubkey{2}, &domain.Account{Owner: consts.SystemProgram}, true, true)
		assert.NotPanics(t, func() {
			assert.ErrorIs(t, createAccount(payer, fresh, 0, space, types.Pubkey{3}), domain.ErrInvalidArgument)
		})
		assert.Empty(t, fresh.Data)
	}
	assert.Equal(t, uint64(1_000_000_000), payer.Lamports)

	fresh := testkit.Info(types.Pubkey{4}, &domain.Account{Owner: consts.SystemProgram}, true, true)
	require.NoError(t, createAccount(payer, fresh, 0, maxPermittedDataLength, types.Pubkey{3}))
	assert.Len(t, fresh.Data, maxPermittedDataLength)
}

func TestTokenSetAuthorityOwnerMismatch(t *testing.T) {
	mint, owner, other := types.Pubkey{1}, types.Pubkey{2}, types.Pubkey{3}
	custody := testkit.Info(types.Pubkey{4}, testkit.TokenAccount(mint, owner, 1), false, true)
	auth := testkit.Info(other, testkit.Wallet(0), true, false)

	data := append([]byte{6, 2, 1}, other[:]...)
	ix := &domain.Instruction{
		ProgramID: consts.TokenProgram,
		Accounts:  []domain.AccountMeta{{Pubkey: custody.Key, IsWritable: true}, {Pubkey: other, IsSigner: true}},
		Data:      data,
	}
	err := handleTokenInstruction(nil, ix, []*domain.AccountInfo{custody, auth})
	assert.ErrorIs(t, err, domain.ErrOwnerMismatch)

	// 非 AccountOwner 类型不支持
	ix.Data = append([]byte{6, 0, 1}, other[:]...)
	err = handleTokenInstruction(nil, ix, []*domain.AccountInfo{custody, auth})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	acc, err := spltoken.DecodeTokenAccount(custody.Data)
	require.NoError(t, err)
	assert.Equal(t, owner, types.PubkeyFromCommon(acc.Owner))
}

func TestRentFromRequiresSysvar(t *testing.T) {
	_, err := rentFrom(testkit.Info(types.Pubkey{1}, testkit.RentSysvar(), false, false))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = rentFrom(testkit.Info(consts.SysvarRent, testkit.Wallet(1), false, false))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	rent, err := rentFrom(testkit.Info(consts.SysvarRent, testkit.RentSysvar(), false, false))
	require.NoError(t, err)
	assert.Equal(t, uint64(3480), rent.LamportsPerByteYear)
}
