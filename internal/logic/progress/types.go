package progress

// TxStatus 表示交易的处理状态
type TxStatus int

const (
	TxUnknown   TxStatus = 0 // Redis 不存在
	TxProcessed TxStatus = 1 // 已执行并产出回执（成功或程序失败）
	TxInvalid   TxStatus = 2 // 签名或结构错误，直接跳过
	TxPending   TxStatus = 3 // 正在处理，暂未完成
)

func (s TxStatus) String() string {
	switch s {
	case TxProcessed:
		return "processed"
	case TxInvalid:
		return "invalid"
	case TxPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Done 已有最终结论，不应再次执行
func (s TxStatus) Done() bool {
	return s == TxProcessed || s == TxInvalid
}
