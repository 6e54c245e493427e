package domain

import "nft-escrow-sol/internal/types"

// Account 表示账本中一个账户的完整状态。
// 字段均为导出字段，可直接用 borsh 编码落库。
type Account struct {
	Lamports   uint64       // 账户余额（最小单位 lamports）
	Owner      types.Pubkey // 拥有该账户数据写权限的程序
	Executable bool         // 是否为可执行程序账户
	Data       []byte       // 账户原始数据
}

// Clone 深拷贝，运行时以副本执行交易，失败时直接丢弃
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.Data != nil {
		c.Data = make([]byte, len(a.Data))
		copy(c.Data, a.Data)
	}
	return &c
}

// AccountInfo 是传给程序的账户视图。
// 同一交易内重复出现的 key 共享同一个 *Account。
type AccountInfo struct {
	Key        types.Pubkey
	IsSigner   bool
	IsWritable bool
	*Account
}

func (ai *AccountInfo) DataLen() int {
	if ai == nil || ai.Account == nil {
		return 0
	}
	return len(ai.Data)
}
