package runtime

import (
	"context"
	"encoding/binary"
	"math"
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/ixbuilder"
	"nft-escrow-sol/internal/logic/metadata"
	"nft-escrow-sol/internal/logic/pda"
	"nft-escrow-sol/internal/logic/processor"
	"nft-escrow-sol/internal/logic/state"
	"nft-escrow-sol/internal/logic/sysvar"
	"nft-escrow-sol/internal/store"
	"nft-escrow-sol/internal/testkit"
	"nft-escrow-sol/internal/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sellerFunds = 10_000_000
	takerFunds  = 5_000_000
)

// marketplace 一个完整的本地市场：程序、平台配置、一个待挂单的 NFT 与买家
type marketplace struct {
	t         *testing.T
	rt        *Runtime
	store     *store.MemoryStore
	proc      *processor.Processor
	programID types.Pubkey
	admin     types.Pubkey
	vault     types.Pubkey
	treasury  types.Pubkey
	seller    types.Pubkey
	taker     types.Pubkey
	mint      types.Pubkey
	custody   types.Pubkey
	escrow    types.Pubkey
	creator   types.Pubkey
}

func newMarketplace(t *testing.T) *marketplace {
	m := &marketplace{
		t:         t,
		store:     store.NewMemoryStore(),
		programID: testkit.NewPubkey(),
		admin:     testkit.NewPubkey(),
		vault:     testkit.NewPubkey(),
		treasury:  testkit.NewPubkey(),
		seller:    testkit.NewPubkey(),
		taker:     testkit.NewPubkey(),
		mint:      testkit.NewPubkey(),
		custody:   testkit.NewPubkey(),
		escrow:    testkit.NewPubkey(),
		creator:   testkit.NewPubkey(),
	}
	proc, err := processor.NewProcessor(processor.ProgramOptions{ProgramID: m.programID, AdminAuthority: m.admin})
	require.NoError(t, err)
	m.proc = proc
	m.rt = New(m.store, proc, Options{})

	metaAddr, err := pda.MetadataAddress(consts.TokenMetaProgram, m.mint)
	require.NoError(t, err)

	shares := []metadata.CreatorShare{{Address: m.creator, SharePercent: 70}}
	require.NoError(t, m.store.Save(context.Background(), map[types.Pubkey]*domain.Account{
		m.admin:   testkit.Wallet(1_000_000),
		m.vault:   testkit.Vault(m.programID, state.PlatformVault{}, 0),
		m.seller:  testkit.Wallet(sellerFunds),
		m.taker:   testkit.Wallet(takerFunds),
		m.mint:    testkit.Mint(m.seller),
		m.custody: testkit.TokenAccount(m.mint, m.seller, 1),
		metaAddr:  testkit.Metadata(m.mint, 4000, shares),
	}))
	return m
}

func (m *marketplace) execute(signers []types.Pubkey, ixs ...domain.Instruction) *Receipt {
	receipt, err := m.rt.Execute(context.Background(), &domain.Transaction{Signers: signers, Instructions: ixs})
	require.NoError(m.t, err)
	return receipt
}

func (m *marketplace) account(k types.Pubkey) *domain.Account {
	got, err := m.store.Load(context.Background(), []types.Pubkey{k})
	require.NoError(m.t, err)
	return got[k]
}

func (m *marketplace) lamports(k types.Pubkey) uint64 {
	if acc := m.account(k); acc != nil {
		return acc.Lamports
	}
	return 0
}

func (m *marketplace) updatePlatform(feeBps uint64) *Receipt {
	return m.execute([]types.Pubkey{m.admin}, ixbuilder.UpdatePlatform(ixbuilder.UpdatePlatformParams{
		ProgramID: m.programID, Admin: m.admin, Vault: m.vault, Treasury: m.treasury, FeeBps: feeBps,
	}))
}

func (m *marketplace) list(price uint64) *Receipt {
	return m.execute([]types.Pubkey{m.seller, m.escrow}, ixbuilder.List(ixbuilder.ListParams{
		ProgramID: m.programID, Initializer: m.seller, Custody: m.custody, Mint: m.mint, Escrow: m.escrow, Price: price,
	}))
}

func (m *marketplace) exchangeIx(creators []types.Pubkey) domain.Instruction {
	ix, err := ixbuilder.Exchange(ixbuilder.ExchangeParams{
		ProgramID: m.programID, Taker: m.taker, Custody: m.custody, Seller: m.seller, Mint: m.mint,
		Escrow: m.escrow, Vault: m.vault, Treasury: m.treasury, Creators: creators, Amount: 1,
	})
	require.NoError(m.t, err)
	return ix
}

func (m *marketplace) cancel() *Receipt {
	ix, err := ixbuilder.Cancel(ixbuilder.CancelParams{ProgramID: m.programID, Seller: m.seller, Custody: m.custody, Escrow: m.escrow})
	require.NoError(m.t, err)
	return m.execute([]types.Pubkey{m.seller}, ix)
}

func requireSuccess(t *testing.T, r *Receipt) {
	require.True(t, r.Success, "tx failed: %s", r.Error)
}

func TestMarketplaceListAndExchange(t *testing.T) {
	m := newMarketplace(t)
	requireSuccess(t, m.updatePlatform(250))
	requireSuccess(t, m.list(123))

	escrowRent := sysvar.DefaultRent().MinimumBalance(state.EscrowRecordLen)
	assert.Equal(t, uint64(sellerFunds)-escrowRent, m.lamports(m.seller))
	assert.Equal(t, escrowRent, m.lamports(m.escrow))
	assert.Equal(t, m.proc.Custodian(), testkit.TokenOwner(m.account(m.custody)))

	receipt := m.execute([]types.Pubkey{m.taker}, m.exchangeIx([]types.Pubkey{m.creator}))
	requireSuccess(t, receipt)

	assert.Equal(t, uint64(34), m.lamports(m.creator))
	assert.Equal(t, uint64(3), m.lamports(m.treasury))
	assert.Equal(t, uint64(sellerFunds)-escrowRent+86, m.lamports(m.seller))
	assert.Equal(t, uint64(takerFunds-123), m.lamports(m.taker))
	assert.Equal(t, m.taker, testkit.TokenOwner(m.account(m.custody)))

	rec, err := state.UnpackEscrowRecord(m.account(m.escrow).Data)
	require.NoError(t, err)
	assert.False(t, rec.IsInitialized)

	changes := make(map[types.Pubkey]AccountChange)
	for _, c := range receipt.Changes {
		changes[c.Key] = c
	}
	assert.Equal(t, AccountChange{Key: m.creator, LamportsBefore: 0, LamportsAfter: 34}, changes[m.creator])
	assert.Len(t, receipt.Changes, 4)

	// 同一挂单不能再次成交
	m.taker = testkit.NewPubkey()
	require.NoError(t, m.store.Save(context.Background(), map[types.Pubkey]*domain.Account{m.taker: testkit.Wallet(takerFunds)}))
	again := m.execute([]types.Pubkey{m.taker}, m.exchangeIx([]types.Pubkey{m.creator}))
	assert.False(t, again.Success)
	assert.Equal(t, domain.ErrUninitializedAccount.Code(), again.Code)
}

func TestExchangeRollbackOnCreatorMismatch(t *testing.T) {
	m := newMarketplace(t)
	requireSuccess(t, m.updatePlatform(250))
	requireSuccess(t, m.list(123))

	sellerBefore := m.lamports(m.seller)
	receipt := m.execute([]types.Pubkey{m.taker}, m.exchangeIx([]types.Pubkey{testkit.NewPubkey()}))
	assert.False(t, receipt.Success)
	assert.Equal(t, domain.ErrInvalidAccountData.Code(), receipt.Code)

	assert.Equal(t, uint64(takerFunds), m.lamports(m.taker))
	assert.Equal(t, sellerBefore, m.lamports(m.seller))
	assert.Equal(t, uint64(0), m.lamports(m.creator))
	assert.Equal(t, m.proc.Custodian(), testkit.TokenOwner(m.account(m.custody)))
}

func TestExchangeRollbackAfterTransfers(t *testing.T) {
	m := newMarketplace(t)
	requireSuccess(t, m.updatePlatform(250))
	requireSuccess(t, m.list(123))

	// 伪造托管 PDA：所有转账都已执行，最后的权限变更失败
	ix := m.exchangeIx([]types.Pubkey{m.creator})
	ix.Accounts[7].Pubkey = testkit.NewPubkey()

	sellerBefore := m.lamports(m.seller)
	receipt := m.execute([]types.Pubkey{m.taker}, ix)
	assert.False(t, receipt.Success)
	assert.Equal(t, domain.ErrMissingRequiredSignature.Code(), receipt.Code)

	assert.Equal(t, uint64(takerFunds), m.lamports(m.taker))
	assert.Equal(t, sellerBefore, m.lamports(m.seller))
	assert.Equal(t, uint64(0), m.lamports(m.creator))
	assert.Equal(t, uint64(0), m.lamports(m.treasury))

	rec, err := state.UnpackEscrowRecord(m.account(m.escrow).Data)
	require.NoError(t, err)
	assert.True(t, rec.IsInitialized)
}

func TestCancelThenReuseFails(t *testing.T) {
	m := newMarketplace(t)
	requireSuccess(t, m.updatePlatform(250))
	requireSuccess(t, m.list(500))
	requireSuccess(t, m.cancel())

	assert.Equal(t, m.seller, testkit.TokenOwner(m.account(m.custody)))
	assert.Equal(t, make([]byte, state.EscrowRecordLen), m.account(m.escrow).Data)

	r := m.cancel()
	assert.False(t, r.Success)
	assert.Equal(t, domain.ErrUninitializedAccount.Code(), r.Code)

	r = m.execute([]types.Pubkey{m.taker}, m.exchangeIx([]types.Pubkey{m.creator}))
	assert.False(t, r.Success)
	assert.Equal(t, domain.ErrUninitializedAccount.Code(), r.Code)
	assert.Equal(t, uint64(takerFunds), m.lamports(m.taker))
}

func TestListRequiresTransactionSignature(t *testing.T) {
	m := newMarketplace(t)
	ix := ixbuilder.List(ixbuilder.ListParams{
		ProgramID: m.programID, Initializer: m.seller, Custody: m.custody, Mint: m.mint, Escrow: m.escrow, Price: 10,
	})

	// 卖家未签名
	r := m.execute([]types.Pubkey{m.escrow}, ix)
	assert.False(t, r.Success)
	assert.Equal(t, domain.ErrMissingRequiredSignature.Code(), r.Code)

	// 新账户未签名，创建失败
	r = m.execute([]types.Pubkey{m.seller}, ix)
	assert.False(t, r.Success)
	assert.Equal(t, domain.ErrMissingRequiredSignature.Code(), r.Code)

	assert.Nil(t, m.account(m.escrow))
	assert.Equal(t, uint64(sellerFunds), m.lamports(m.seller))
}

func TestListReadonlyCustodyRejected(t *testing.T) {
	m := newMarketplace(t)
	ix := ixbuilder.List(ixbuilder.ListParams{
		ProgramID: m.programID, Initializer: m.seller, Custody: m.custody, Mint: m.mint, Escrow: m.escrow, Price: 10,
	})
	ix.Accounts[1].IsWritable = false

	r := m.execute([]types.Pubkey{m.seller, m.escrow}, ix)
	assert.False(t, r.Success)
	assert.Equal(t, domain.ErrReadonlyDataModified.Code(), r.Code)
	assert.Equal(t, m.seller, testkit.TokenOwner(m.account(m.custody)))
}

func TestAdminUpdateRequiresRentExemptVault(t *testing.T) {
	m := newMarketplace(t)
	require.NoError(t, m.store.Save(context.Background(), map[types.Pubkey]*domain.Account{
		m.vault: testkit.Vault(m.programID, state.PlatformVault{}, 1),
	}))

	r := m.updatePlatform(250)
	assert.False(t, r.Success)
	assert.Equal(t, domain.ErrInvalidInstructionData.Code(), r.Code)
}

func TestUnknownProgram(t *testing.T) {
	m := newMarketplace(t)
	r := m.execute(nil, domain.Instruction{ProgramID: testkit.NewPubkey(), Data: []byte{0}})
	assert.False(t, r.Success)
	assert.Equal(t, domain.ErrUnknownProgram.Code(), r.Code)
}

func TestTopLevelSystemTransfer(t *testing.T) {
	m := newMarketplace(t)
	dest := testkit.NewPubkey()
	ix := fromTransfer(m.taker, dest, 1000)

	r := m.execute([]types.Pubkey{m.taker}, ix)
	requireSuccess(t, r)
	assert.Equal(t, uint64(1000), m.lamports(dest))
	assert.Equal(t, uint64(takerFunds-1000), m.lamports(m.taker))

	r = m.execute([]types.Pubkey{m.taker}, fromTransfer(m.taker, dest, takerFunds))
	assert.False(t, r.Success)
	assert.Equal(t, domain.ErrInsufficientFunds.Code(), r.Code)

	r = m.execute(nil, fromTransfer(m.taker, dest, 1))
	assert.False(t, r.Success)
	assert.Equal(t, domain.ErrMissingRequiredSignature.Code(), r.Code)
}

func TestTopLevelCreateAccountOversized(t *testing.T) {
	m := newMarketplace(t)
	fresh := testkit.NewPubkey()

	r := m.execute([]types.Pubkey{m.taker, fresh}, createAccountIx(m.taker, fresh, 0, math.MaxUint64))
	assert.False(t, r.Success)
	assert.Equal(t, domain.ErrInvalidArgument.Code(), r.Code)
	assert.Equal(t, uint64(takerFunds), m.lamports(m.taker))
}

func TestMultiInstructionAtomicity(t *testing.T) {
	m := newMarketplace(t)
	dest := testkit.NewPubkey()

	// 第一条成功、第二条失败，整笔回滚
	r := m.execute([]types.Pubkey{m.taker},
		fromTransfer(m.taker, dest, 1000),
		domain.Instruction{ProgramID: testkit.NewPubkey()},
	)
	assert.False(t, r.Success)
	assert.Equal(t, uint64(0), m.lamports(dest))
	assert.Equal(t, uint64(takerFunds), m.lamports(m.taker))
}

func fromTransfer(from, to types.Pubkey, amount uint64) domain.Instruction {
	return domain.Instruction{
		ProgramID: consts.SystemProgram,
		Accounts: []domain.AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: to, IsWritable: true},
		},
		Data: transferData(amount),
	}
}

func createAccountIx(from, to types.Pubkey, lamports, space uint64) domain.Instruction {
	data := make([]byte, 52)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	binary.LittleEndian.PutUint64(data[12:20], space)
	return domain.Instruction{
		ProgramID: consts.SystemProgram,
		Accounts: []domain.AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: to, IsSigner: true, IsWritable: true},
		},
		Data: data,
	}
}
