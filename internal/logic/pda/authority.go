package pda

import "nft-escrow-sol/internal/logic/domain"

// Authority 是授权凭证：要么由账户自身签名授权，要么由程序以 seeds 证明其控制该 PDA。
// 凭证内不持有任何私钥，程序授权由运行时按调用方程序 ID 复核 seeds。
type Authority struct {
	Account *domain.AccountInfo
	Seeds   [][]byte
}

// WalletAuthority 普通钱包授权，依赖交易签名
func WalletAuthority(info *domain.AccountInfo) Authority {
	return Authority{Account: info}
}

// ProgramAuthority 程序派生地址授权
func ProgramAuthority(info *domain.AccountInfo, seeds [][]byte) Authority {
	return Authority{Account: info, Seeds: seeds}
}

func (a Authority) IsProgramDerived() bool {
	return len(a.Seeds) > 0
}
