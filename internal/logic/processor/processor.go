package processor

import (
	"fmt"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/instruction"
	"nft-escrow-sol/internal/logic/pda"
	"nft-escrow-sol/internal/logic/spltoken"
	"nft-escrow-sol/internal/logic/state"
	"nft-escrow-sol/internal/types"
	"nft-escrow-sol/pkg/logger"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"
)

// MaxPlatformFeeBps 平台费率上限（100%）
const MaxPlatformFeeBps = 10_000

// ProgramOptions 程序级配置，由部署方注入
type ProgramOptions struct {
	ProgramID      types.Pubkey
	AdminAuthority types.Pubkey // 唯一可以更新平台费率配置的地址
	// RetainClosedFields 关闭挂单时仅清除初始化标志，保留其余字段；默认整体清零
	RetainClosedFields bool
}

// Processor 托管程序入口，无内部状态，可被并发的多个运行时复用
type Processor struct {
	opts          ProgramOptions
	custodian     types.Pubkey
	custodianBump uint8
}

func NewProcessor(opts ProgramOptions) (*Processor, error) {
	if opts.ProgramID.IsZero() {
		return nil, fmt.Errorf("program id is required")
	}
	if opts.AdminAuthority.IsZero() {
		return nil, fmt.Errorf("admin authority is required")
	}
	custodian, bump, err := pda.FindCustodian(opts.ProgramID)
	if err != nil {
		return nil, err
	}
	return &Processor{opts: opts, custodian: custodian, custodianBump: bump}, nil
}

func (p *Processor) ProgramID() types.Pubkey {
	return p.opts.ProgramID
}

// Custodian 托管 PDA 地址
func (p *Processor) Custodian() types.Pubkey {
	return p.custodian
}

// Process 解码指令并分发到对应处理逻辑
func (p *Processor) Process(accounts []*domain.AccountInfo, data []byte, svc Services) error {
	ix, err := instruction.Decode(data)
	if err != nil {
		return err
	}

	logger.Debugf("[Escrow:Process] instruction: %s", ix.Kind)
	iter := newAccountIter(accounts)

	switch ix.Kind {
	case instruction.KindList:
		return p.processList(iter, ix.Amount, svc)
	case instruction.KindExchange:
		return p.processExchange(iter, ix.Amount, svc)
	case instruction.KindCancel:
		return p.processCancel(iter, svc)
	case instruction.KindAdminUpdate:
		return p.processAdminUpdate(iter, ix.Amount, svc)
	default:
		return domain.ErrInvalidInstructionData
	}
}

// closeEscrow 关闭挂单记录
func (p *Processor) closeEscrow(escrow *domain.AccountInfo, rec state.EscrowRecord) error {
	if p.opts.RetainClosedFields {
		rec.IsInitialized = false
	} else {
		rec = state.EscrowRecord{}
	}
	return rec.Pack(escrow.Data)
}

type accountIter struct {
	accounts []*domain.AccountInfo
	pos      int
}

func newAccountIter(accounts []*domain.AccountInfo) *accountIter {
	return &accountIter{accounts: accounts}
}

func (it *accountIter) next() (*domain.AccountInfo, error) {
	if it.pos >= len(it.accounts) {
		return nil, domain.ErrNotEnoughAccountKeys
	}
	info := it.accounts[it.pos]
	it.pos++
	return info, nil
}

// nextN 依次取出 n 个账户
func (it *accountIter) nextN(n int) ([]*domain.AccountInfo, error) {
	out := make([]*domain.AccountInfo, 0, n)
	for i := 0; i < n; i++ {
		info, err := it.next()
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// decodeTokenAccount 解析 SPL token 账户，数据不合法一律视为 InvalidAccountData
func decodeTokenAccount(info *domain.AccountInfo) (sdktoken.TokenAccount, error) {
	if info.Account == nil {
		return sdktoken.TokenAccount{}, domain.ErrInvalidAccountData
	}
	acc, err := spltoken.DecodeTokenAccount(info.Data)
	if err != nil {
		return sdktoken.TokenAccount{}, domain.ErrInvalidAccountData
	}
	return acc, nil
}

func ownedBy(info *domain.AccountInfo, program types.Pubkey) bool {
	return info.Account != nil && info.Owner == program
}
