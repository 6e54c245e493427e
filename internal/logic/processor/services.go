package processor

import (
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/pda"
	"nft-escrow-sol/internal/types"
)

// AssetTransferService 资产托管权限变更（SPL token SetAuthority）。
// program 为调用方传入的 token 程序账户，实现方需校验其身份。
type AssetTransferService interface {
	ReassignAuthority(program, account *domain.AccountInfo, authority pda.Authority, newAuthority types.Pubkey) error
}

// ResourceTransferService lamports 转账（system Transfer），from 必须已签名
type ResourceTransferService interface {
	Transfer(program, from, to *domain.AccountInfo, amount uint64) error
}

// StorageService 账户分配与租金豁免判断
type StorageService interface {
	// Allocate 由 payer 出资创建 account，大小 space，归属 owner；资金按 fundingRef 的租金参数计算
	Allocate(program, fundingRef, payer, account *domain.AccountInfo, space uint64, owner types.Pubkey) error
	// IsFunded 判断 account 当前余额是否满足 fundingRef 下的租金豁免
	IsFunded(fundingRef, account *domain.AccountInfo) (bool, error)
}

// Services 程序执行期间可调用的外部协作方，全部为同步调用，错误原样向上传递
type Services struct {
	Assets    AssetTransferService
	Resources ResourceTransferService
	Storage   StorageService
}
