package scenario

import (
	"context"
	"fmt"
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/ixbuilder"
	"nft-escrow-sol/internal/logic/metadata"
	"nft-escrow-sol/internal/logic/pda"
	"nft-escrow-sol/internal/logic/processor"
	"nft-escrow-sol/internal/logic/spltoken"
	"nft-escrow-sol/internal/logic/state"
	"nft-escrow-sol/internal/runtime"
	"nft-escrow-sol/internal/store"
	"nft-escrow-sol/internal/types"
	"nft-escrow-sol/pkg/logger"
)

// Report 回放结果
type Report struct {
	Program   types.Pubkey      `yaml:"program"`
	Custodian types.Pubkey      `yaml:"custodian"`
	Results   []TxResult        `yaml:"results"`
	Accounts  []AccountSnapshot `yaml:"accounts"`
}

type TxResult struct {
	Name            string `yaml:"name"`
	runtime.Receipt `yaml:",inline"`
}

// AccountSnapshot 回放结束后的账户状态，Closed 表示账户已被回收
type AccountSnapshot struct {
	Name       string        `yaml:"name"`
	Address    types.Pubkey  `yaml:"address"`
	Lamports   uint64        `yaml:"lamports"`
	Owner      types.Pubkey  `yaml:"owner,omitempty"`
	TokenOwner *types.Pubkey `yaml:"token_owner,omitempty"`
	Closed     bool          `yaml:"closed,omitempty"`
}

// Runner 在给定存储上回放场景
type Runner struct {
	sc    *Scenario
	store store.AccountStore
	book  *addressBook
	rt    *runtime.Runtime
	proc  *processor.Processor
}

func NewRunner(sc *Scenario, st store.AccountStore) (*Runner, error) {
	r := &Runner{sc: sc, store: st, book: newAddressBook()}

	programID := r.book.resolve(defaultString(sc.Program.ProgramID, "program"))
	proc, err := processor.NewProcessor(processor.ProgramOptions{
		ProgramID:          programID,
		AdminAuthority:     r.book.resolve(sc.Program.Admin),
		RetainClosedFields: sc.Program.RetainClosedFields,
	})
	if err != nil {
		return nil, err
	}
	r.proc = proc
	r.rt = runtime.New(st, proc, runtime.Options{})
	return r, nil
}

// Run 1. 写入初始账户 2. 顺序执行交易 3. 汇总账户快照
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	// 1. 初始账户
	accounts := make(map[types.Pubkey]*domain.Account, len(r.sc.Accounts))
	for i := range r.sc.Accounts {
		key, acc, err := r.buildAccount(&r.sc.Accounts[i])
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", r.sc.Accounts[i].Name, err)
		}
		accounts[key] = acc
	}
	if err := r.store.Save(ctx, accounts); err != nil {
		return nil, err
	}

	report := &Report{Program: r.proc.ProgramID(), Custodian: r.proc.Custodian()}

	// 2. 交易
	for i := range r.sc.Transactions {
		spec := &r.sc.Transactions[i]
		name := defaultString(spec.Name, fmt.Sprintf("%s#%d", spec.Type, i))
		tx, err := r.buildTransaction(spec)
		if err != nil {
			return nil, fmt.Errorf("transaction %q: %w", name, err)
		}
		receipt, err := r.rt.Execute(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("transaction %q: %w", name, err)
		}
		logger.Infof("[Scenario:Run] %s success=%v %s", name, receipt.Success, receipt.Error)
		report.Results = append(report.Results, TxResult{Name: name, Receipt: *receipt})
	}

	// 3. 快照
	snapshots, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	report.Accounts = snapshots
	return report, nil
}

func (r *Runner) buildAccount(spec *AccountSpec) (types.Pubkey, *domain.Account, error) {
	rent := r.rt.Rent()
	withRent := func(acc *domain.Account) *domain.Account {
		acc.Lamports = spec.Lamports
		if acc.Lamports == 0 {
			acc.Lamports = rent.MinimumBalance(uint64(len(acc.Data)))
		}
		return acc
	}

	switch spec.Kind {
	case KindWallet:
		return r.book.resolve(spec.Name), &domain.Account{Lamports: spec.Lamports, Owner: consts.SystemProgram}, nil

	case KindMint:
		authority := r.book.resolve(spec.Authority)
		return r.book.resolve(spec.Name), withRent(&domain.Account{
			Owner: consts.TokenProgram,
			Data:  spltoken.NewMintData(authority, consts.NFTSupply, 0),
		}), nil

	case KindToken:
		mint, owner := r.book.resolve(spec.Mint), r.book.resolve(spec.Owner)
		return r.book.resolve(spec.Name), withRent(&domain.Account{
			Owner: consts.TokenProgram,
			Data:  spltoken.NewTokenAccountData(mint, owner, spec.Amount),
		}), nil

	case KindMetadata:
		mint := r.book.resolve(spec.Mint)
		addr, err := pda.MetadataAddress(consts.TokenMetaProgram, mint)
		if err != nil {
			return types.Pubkey{}, nil, err
		}
		r.book.bind(spec.Name, addr)
		shares := make([]metadata.CreatorShare, len(spec.Creators))
		for i, c := range spec.Creators {
			shares[i] = metadata.CreatorShare{Address: r.book.resolve(c.Address), SharePercent: c.Share}
		}
		data, err := metadata.NewRecord(mint, spec.SellerFeeBps, shares).Encode()
		if err != nil {
			return types.Pubkey{}, nil, err
		}
		return addr, withRent(&domain.Account{Owner: consts.TokenMetaProgram, Data: data}), nil

	case KindVault:
		return r.book.resolve(spec.Name), withRent(&domain.Account{
			Owner: r.proc.ProgramID(),
			Data:  make([]byte, state.PlatformVaultLen),
		}), nil

	default:
		return types.Pubkey{}, nil, fmt.Errorf("unknown account kind %q", spec.Kind)
	}
}

func (r *Runner) buildTransaction(spec *TxSpec) (*domain.Transaction, error) {
	b := r.book
	programID := r.proc.ProgramID()

	var (
		ix       domain.Instruction
		signers  []string
		err      error
		creators = make([]types.Pubkey, len(spec.Creators))
	)
	for i, c := range spec.Creators {
		creators[i] = b.resolve(c)
	}

	switch spec.Type {
	case TxList:
		ix = ixbuilder.List(ixbuilder.ListParams{
			ProgramID:   programID,
			Initializer: b.resolve(spec.Seller),
			Custody:     b.resolve(spec.Custody),
			Mint:        b.resolve(spec.Mint),
			Escrow:      b.resolve(spec.Escrow),
			Price:       spec.Price,
		})
		signers = []string{spec.Seller, spec.Escrow}

	case TxExchange:
		ix, err = ixbuilder.Exchange(ixbuilder.ExchangeParams{
			ProgramID: programID,
			Taker:     b.resolve(spec.Taker),
			Custody:   b.resolve(spec.Custody),
			Seller:    b.resolve(spec.Seller),
			Mint:      b.resolve(spec.Mint),
			Escrow:    b.resolve(spec.Escrow),
			Vault:     b.resolve(spec.Vault),
			Treasury:  b.resolve(spec.Treasury),
			Creators:  creators,
			Amount:    spec.Amount,
		})
		signers = []string{spec.Taker}

	case TxCancel:
		ix, err = ixbuilder.Cancel(ixbuilder.CancelParams{
			ProgramID: programID,
			Seller:    b.resolve(spec.Seller),
			Custody:   b.resolve(spec.Custody),
			Escrow:    b.resolve(spec.Escrow),
		})
		signers = []string{spec.Seller}

	case TxAdminUpdate:
		admin := defaultString(spec.Admin, r.sc.Program.Admin)
		ix = ixbuilder.UpdatePlatform(ixbuilder.UpdatePlatformParams{
			ProgramID: programID,
			Admin:     b.resolve(admin),
			Vault:     b.resolve(spec.Vault),
			Treasury:  b.resolve(spec.Treasury),
			FeeBps:    spec.FeeBps,
		})
		signers = []string{admin}

	default:
		return nil, fmt.Errorf("unknown transaction type %q", spec.Type)
	}
	if err != nil {
		return nil, err
	}

	if spec.Signers != nil {
		signers = spec.Signers
	}
	tx := &domain.Transaction{Instructions: []domain.Instruction{ix}}
	for _, s := range signers {
		tx.Signers = append(tx.Signers, b.resolve(s))
	}
	return tx, nil
}

func (r *Runner) snapshot(ctx context.Context) ([]AccountSnapshot, error) {
	names := r.trackedNames()
	keys := make([]types.Pubkey, len(names))
	for i, n := range names {
		keys[i] = r.book.resolve(n)
	}
	loaded, err := r.store.Load(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]AccountSnapshot, 0, len(names))
	for i, n := range names {
		snap := AccountSnapshot{Name: n, Address: keys[i]}
		acc := loaded[keys[i]]
		if acc == nil {
			snap.Closed = true
			out = append(out, snap)
			continue
		}
		snap.Lamports = acc.Lamports
		snap.Owner = acc.Owner
		if acc.Owner == consts.TokenProgram && len(acc.Data) == spltoken.TokenAccountLen {
			if tokenAcc, err := spltoken.DecodeTokenAccount(acc.Data); err == nil {
				owner := types.PubkeyFromCommon(tokenAcc.Owner)
				snap.TokenOwner = &owner
			}
		}
		out = append(out, snap)
	}
	return out, nil
}

// trackedNames 场景声明的账户与挂单创建的 escrow 账户
func (r *Runner) trackedNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, a := range r.sc.Accounts {
		add(a.Name)
	}
	for _, tx := range r.sc.Transactions {
		if tx.Type == TxList {
			add(tx.Escrow)
		}
	}
	return names
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
