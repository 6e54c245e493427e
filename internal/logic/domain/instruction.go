package domain

import "nft-escrow-sol/internal/types"

// AccountMeta 描述指令引用的一个账户及其权限
type AccountMeta struct {
	Pubkey     types.Pubkey
	IsSigner   bool
	IsWritable bool
}

// Instruction 表示提交给运行时的一条指令。
type Instruction struct {
	ProgramID types.Pubkey  // 所调用的程序地址
	Accounts  []AccountMeta // 指令涉及的账户列表，保持原始顺序
	Data      []byte        // 指令数据
}
