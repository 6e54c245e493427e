package scenario

import (
	"context"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/state"
	"nft-escrow-sol/internal/logic/sysvar"
	"nft-escrow-sol/internal/store"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func loadExample(t *testing.T) *Scenario {
	t.Helper()
	sc, err := Load(filepath.Join("..", "..", "etc", "scenario.yaml"))
	require.NoError(t, err)
	return sc
}

func snapshotByName(report *Report) map[string]AccountSnapshot {
	out := make(map[string]AccountSnapshot, len(report.Accounts))
	for _, a := range report.Accounts {
		out[a.Name] = a
	}
	return out
}

func TestRunExampleScenario(t *testing.T) {
	sc := loadExample(t)
	runner, err := NewRunner(sc, store.NewMemoryStore())
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	for _, r := range report.Results[:3] {
		assert.True(t, r.Success, "%s: %s", r.Name, r.Error)
	}
	assert.False(t, report.Results[3].Success)
	assert.Equal(t, domain.ErrUninitializedAccount.Code(), report.Results[3].Code)

	escrowRent := sysvar.DefaultRent().MinimumBalance(state.EscrowRecordLen)
	accounts := snapshotByName(report)
	assert.Equal(t, uint64(34), accounts["creator"].Lamports)
	assert.Equal(t, uint64(3), accounts["treasury"].Lamports)
	assert.Equal(t, uint64(10_000_000)-escrowRent+86, accounts["seller"].Lamports)
	assert.Equal(t, uint64(5_000_000-123), accounts["taker"].Lamports)
	assert.Equal(t, escrowRent, accounts["listing"].Lamports)
	assert.Equal(t, report.Program, accounts["listing"].Owner)

	require.NotNil(t, accounts["custody"].TokenOwner)
	assert.Equal(t, accounts["taker"].Address, *accounts["custody"].TokenOwner)
}

func TestRunCancel(t *testing.T) {
	sc := loadExample(t)
	sc.Transactions = []TxSpec{
		sc.Transactions[1],
		{Name: "cancel", Type: TxCancel, Seller: "seller", Custody: "custody", Escrow: "listing"},
		{Name: "cancel-by-taker", Type: TxCancel, Seller: "taker", Custody: "custody", Escrow: "listing"},
	}
	runner, err := NewRunner(sc, store.NewMemoryStore())
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.True(t, report.Results[0].Success, report.Results[0].Error)
	assert.True(t, report.Results[1].Success, report.Results[1].Error)
	assert.False(t, report.Results[2].Success)

	accounts := snapshotByName(report)
	require.NotNil(t, accounts["custody"].TokenOwner)
	assert.Equal(t, accounts["seller"].Address, *accounts["custody"].TokenOwner)
}

func TestRunWithBoltStore(t *testing.T) {
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "escrow.db"))
	require.NoError(t, err)
	defer st.Close()

	runner, err := NewRunner(loadExample(t), st)
	require.NoError(t, err)
	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Results[2].Success, report.Results[2].Error)
}

func TestReportYAML(t *testing.T) {
	runner, err := NewRunner(loadExample(t), store.NewMemoryStore())
	require.NoError(t, err)
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	out, err := yaml.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, report.Program.String(), decoded["program"])

	results, ok := decoded["results"].([]any)
	require.True(t, ok)
	first, ok := results[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "configure-platform", first["name"])
	assert.Equal(t, true, first["success"])
	assert.Equal(t, report.Results[0].TxID.String(), first["tx_id"])
}

func TestRunErrors(t *testing.T) {
	_, err := Parse([]byte("program: {program_id: p}\n"))
	assert.Error(t, err, "admin is required")

	sc := loadExample(t)
	sc.Accounts = append(sc.Accounts, AccountSpec{Name: "x", Kind: "stake"})
	runner, err := NewRunner(sc, store.NewMemoryStore())
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	assert.ErrorContains(t, err, "unknown account kind")

	sc = loadExample(t)
	sc.Transactions = []TxSpec{{Name: "bad", Type: "burn"}}
	runner, err = NewRunner(sc, store.NewMemoryStore())
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	assert.ErrorContains(t, err, "unknown transaction type")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
