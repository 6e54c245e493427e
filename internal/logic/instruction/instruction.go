package instruction

import (
	"encoding/binary"
	"nft-escrow-sol/internal/logic/domain"
)

// Kind 指令首字节 tag
type Kind uint8

const (
	KindList        Kind = 0 // 卖家挂单
	KindExchange    Kind = 1 // 买家成交
	KindCancel      Kind = 2 // 卖家撤单
	KindAdminUpdate Kind = 3 // 管理员更新平台费率
)

const amountLen = 8

var kindNames = [...]string{
	KindList:        "List",
	KindExchange:    "Exchange",
	KindCancel:      "Cancel",
	KindAdminUpdate: "AdminUpdate",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

func (k Kind) hasAmount() bool {
	return k != KindCancel
}

// Instruction 解码后的托管指令。Cancel 不携带 Amount（恒为 0）。
type Instruction struct {
	Kind   Kind
	Amount uint64
}

func List(amount uint64) Instruction        { return Instruction{Kind: KindList, Amount: amount} }
func Exchange(amount uint64) Instruction    { return Instruction{Kind: KindExchange, Amount: amount} }
func Cancel() Instruction                   { return Instruction{Kind: KindCancel} }
func AdminUpdate(amount uint64) Instruction { return Instruction{Kind: KindAdminUpdate, Amount: amount} }

// Decode 解析指令数据：[tag:u8][amount:u64 LE]
// 空数据、未知 tag、amount 不足 8 字节均返回 ErrInvalidInstructionData。
// payload 超出 8 字节的部分忽略。
func Decode(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return Instruction{}, domain.ErrInvalidInstructionData
	}
	kind, rest := Kind(data[0]), data[1:]

	switch kind {
	case KindList, KindExchange, KindAdminUpdate:
		if len(rest) < amountLen {
			return Instruction{}, domain.ErrInvalidInstructionData
		}
		return Instruction{Kind: kind, Amount: binary.LittleEndian.Uint64(rest[:amountLen])}, nil
	case KindCancel:
		return Instruction{Kind: KindCancel}, nil
	default:
		return Instruction{}, domain.ErrInvalidInstructionData
	}
}

// Encode 生成规范的线上编码
func (ix Instruction) Encode() []byte {
	if !ix.Kind.hasAmount() {
		return []byte{byte(ix.Kind)}
	}
	buf := make([]byte, 1+amountLen)
	buf[0] = byte(ix.Kind)
	binary.LittleEndian.PutUint64(buf[1:], ix.Amount)
	return buf
}
