package runtime

import (
	"bytes"
	"context"
	"fmt"
	"nft-escrow-sol/internal/consts"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/processor"
	"nft-escrow-sol/internal/logic/sysvar"
	"nft-escrow-sol/internal/store"
	"nft-escrow-sol/internal/types"
	"nft-escrow-sol/pkg/logger"
	"sync"
)

// programHandler 程序入口，accounts 顺序与指令中的 AccountMeta 一致
type programHandler func(ic *invokeContext, ix *domain.Instruction, accounts []*domain.AccountInfo) error

type Options struct {
	Rent sysvar.Rent // 为零值时使用默认租金参数
}

// Runtime 本地交易执行器：串行执行交易，在副本上运行，全部成功后整批提交到 store
type Runtime struct {
	mu       sync.Mutex
	store    store.AccountStore
	rent     sysvar.Rent
	programs map[types.Pubkey]programHandler
	sysvars  map[types.Pubkey]*domain.Account
}

func New(st store.AccountStore, proc *processor.Processor, opts Options) *Runtime {
	rent := opts.Rent
	if rent == (sysvar.Rent{}) {
		rent = sysvar.DefaultRent()
	}
	rt := &Runtime{
		store:    st,
		rent:     rent,
		programs: make(map[types.Pubkey]programHandler),
		sysvars:  make(map[types.Pubkey]*domain.Account),
	}

	rentData := rent.Encode()
	rt.sysvars[consts.SysvarRent] = &domain.Account{
		Lamports: rent.MinimumBalance(uint64(len(rentData))),
		Owner:    consts.SysvarOwner,
		Data:     rentData,
	}

	registerSystemProgram(rt.programs)
	registerTokenProgram(rt.programs)
	if proc != nil {
		rt.RegisterProcessor(proc)
	}
	return rt
}

// RegisterProcessor 以 proc.ProgramID() 注册托管程序
func (rt *Runtime) RegisterProcessor(proc *processor.Processor) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.programs[proc.ProgramID()] = func(ic *invokeContext, ix *domain.Instruction, accounts []*domain.AccountInfo) error {
		return proc.Process(accounts, ix.Data, processor.Services{Assets: ic, Resources: ic, Storage: ic})
	}
}

func (rt *Runtime) Rent() sysvar.Rent {
	return rt.rent
}

// Execute 执行一笔交易。
// 程序错误返回 Success=false 的回执且 err 为 nil；只有存储读写失败才返回 err。
func (rt *Runtime) Execute(ctx context.Context, tx *domain.Transaction) (*Receipt, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	txID, err := tx.ID()
	if err != nil {
		return nil, err
	}

	// 1. 加载账户并建立工作副本
	keys := tx.AccountKeys()
	loaded, err := rt.store.Load(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	working := make(map[types.Pubkey]*domain.Account, len(keys))
	for _, k := range keys {
		switch {
		case rt.sysvars[k] != nil:
			working[k] = rt.sysvars[k].Clone()
		case loaded[k] != nil:
			working[k] = loaded[k].Clone()
		default:
			working[k] = &domain.Account{Owner: consts.SystemProgram}
		}
	}
	before := make(map[types.Pubkey]uint64, len(working))
	var totalBefore uint64
	for k, acc := range working {
		before[k] = acc.Lamports
		totalBefore += acc.Lamports
	}

	signers := make(map[types.Pubkey]bool, len(tx.Signers))
	for _, s := range tx.Signers {
		signers[s] = true
	}

	// 2. 逐条执行，任一失败整笔丢弃
	for i := range tx.Instructions {
		if err := rt.executeInstruction(working, signers, &tx.Instructions[i]); err != nil {
			logger.Warnf("[Runtime:Execute] tx=%s, instruction=%d failed: %v", txID, i, err)
			return failedReceipt(txID, err), nil
		}
	}

	// 3. 余额守恒
	var totalAfter uint64
	for _, acc := range working {
		totalAfter += acc.Lamports
	}
	if totalAfter != totalBefore {
		logger.Errorf("[Runtime:Execute] tx=%s unbalanced: before=%d, after=%d", txID, totalBefore, totalAfter)
		return failedReceipt(txID, domain.ErrUnbalancedTransaction), nil
	}

	// 4. 提交变更
	dirty := make(map[types.Pubkey]*domain.Account)
	receipt := &Receipt{TxID: txID, Success: true}
	for _, k := range keys {
		if rt.sysvars[k] != nil {
			continue
		}
		acc := working[k]
		if !accountEqual(loaded[k], acc) {
			dirty[k] = acc
		}
		if before[k] != acc.Lamports {
			receipt.Changes = append(receipt.Changes, AccountChange{Key: k, LamportsBefore: before[k], LamportsAfter: acc.Lamports})
		}
	}
	if err := rt.store.Save(ctx, dirty); err != nil {
		return nil, fmt.Errorf("commit tx %s: %w", txID, err)
	}
	return receipt, nil
}

// executeInstruction 执行顶层指令，签名权限来自交易签名集合
func (rt *Runtime) executeInstruction(working map[types.Pubkey]*domain.Account, signers map[types.Pubkey]bool, ix *domain.Instruction) error {
	handler, ok := rt.programs[ix.ProgramID]
	if !ok {
		return domain.ErrUnknownProgram
	}

	infos := make([]*domain.AccountInfo, 0, len(ix.Accounts))
	byKey := make(map[types.Pubkey]*domain.AccountInfo, len(ix.Accounts))
	for _, meta := range ix.Accounts {
		info := &domain.AccountInfo{
			Key:        meta.Pubkey,
			IsSigner:   meta.IsSigner && signers[meta.Pubkey],
			IsWritable: meta.IsWritable,
			Account:    working[meta.Pubkey],
		}
		infos = append(infos, info)
		if prev, ok := byKey[meta.Pubkey]; ok {
			// 同一账户多次出现时权限取并集
			byKey[meta.Pubkey] = &domain.AccountInfo{
				Key:        meta.Pubkey,
				IsSigner:   prev.IsSigner || info.IsSigner,
				IsWritable: prev.IsWritable || info.IsWritable,
				Account:    info.Account,
			}
			continue
		}
		byKey[meta.Pubkey] = info
	}

	snapshot := make(map[types.Pubkey]*domain.Account, len(byKey))
	for k, info := range byKey {
		snapshot[k] = info.Account.Clone()
	}

	ic := &invokeContext{rt: rt, programID: ix.ProgramID, accounts: byKey}
	if err := handler(ic, ix, infos); err != nil {
		return err
	}

	for k, info := range byKey {
		if !info.IsWritable && !accountEqual(snapshot[k], info.Account) {
			return domain.ErrReadonlyDataModified
		}
	}
	return nil
}

// accountEqual 比较两个账户状态，nil 视为空的系统账户
func accountEqual(a, b *domain.Account) bool {
	empty := &domain.Account{Owner: consts.SystemProgram}
	if a == nil {
		a = empty
	}
	if b == nil {
		b = empty
	}
	return a.Lamports == b.Lamports &&
		a.Owner == b.Owner &&
		a.Executable == b.Executable &&
		bytes.Equal(a.Data, b.Data)
}
