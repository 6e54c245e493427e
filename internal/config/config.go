package config

import (
	"fmt"
	"nft-escrow-sol/internal/logic/processor"
	"nft-escrow-sol/internal/types"
	"nft-escrow-sol/pkg/logger"
	"strings"
)

type LogConfig struct {
	Format   string `json:"format,default=console"` // 日志格式，支持 "console" 或 "json"
	LogDir   string `json:"log_dir,optional"`       // 日志目录（可为相对路径或绝对路径），为空只输出到控制台
	Level    string `json:"level,default=info"`     // 日志级别：debug / info / warn / error
	Compress bool   `json:"compress,optional"`      // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// ProgramConfig 托管程序部署参数
type ProgramConfig struct {
	ProgramID          string `json:"program_id"`                    // 托管程序地址（base58）
	AdminAuthority     string `json:"admin_authority"`               // 平台费率管理员地址（base58）
	RetainClosedFields bool   `json:"retain_closed_fields,optional"` // 关闭挂单时保留历史字段
}

func (c *ProgramConfig) ToProgramOptions() (processor.ProgramOptions, error) {
	programID, err := types.TryPubkeyFromBase58(c.ProgramID)
	if err != nil {
		return processor.ProgramOptions{}, fmt.Errorf("program.program_id: %w", err)
	}
	admin, err := types.TryPubkeyFromBase58(c.AdminAuthority)
	if err != nil {
		return processor.ProgramOptions{}, fmt.Errorf("program.admin_authority: %w", err)
	}
	return processor.ProgramOptions{
		ProgramID:          programID,
		AdminAuthority:     admin,
		RetainClosedFields: c.RetainClosedFields,
	}, nil
}

// KafkaConfig 表示 Kafka 相关配置
type KafkaConfig struct {
	Brokers   string `json:"brokers"`                  // Kafka broker 地址，多个用英文逗号分隔
	GroupID   string `json:"group_id,default=escrowd"` // 交易消费组
	BatchSize int    `json:"batch_size,default=32768"` // 批处理大小（单位字节）
	LingerMs  int    `json:"linger_ms,default=5"`      // 批处理最大延迟（毫秒）

	Topics struct {
		Tx      string `json:"tx,default=escrow-tx"`           // 交易请求 topic
		Receipt string `json:"receipt,default=escrow-receipt"` // 执行回执 topic
	} `json:"topics"`

	Partitions struct {
		Tx      int `json:"tx,default=8"`      // tx topic 的分区数
		Receipt int `json:"receipt,default=8"` // receipt topic 的分区数
	} `json:"partitions"`
}

// BrokerList 拆分 broker 配置
func (c *KafkaConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// RpcConfig 从 RPC 节点克隆初始账户
type RpcConfig struct {
	Endpoint      string   `json:"endpoint,optional"`       // Solana RPC 地址
	CloneAccounts []string `json:"clone_accounts,optional"` // 启动时克隆的账户（base58）
}

// TimeConfig 表示各种超时配置（单位：毫秒）
type TimeConfig struct {
	SendTimeoutMs int `json:"send_timeout_ms,default=5000"` // 单条回执发送到 Kafka 并等待 ack 的超时时间
	PollTimeoutMs int `json:"poll_timeout_ms,default=500"`  // 单次消费轮询超时
}

// EscrowdConfig 是主配置结构体，用于驱动托管执行服务
type EscrowdConfig struct {
	LogConf     LogConfig     `json:"logger"`  // 日志配置
	ProgramConf ProgramConfig `json:"program"` // 程序配置
	KafkaConf   KafkaConfig   `json:"kafka"`   // Kafka 配置
	RpcConf     RpcConfig     `json:"rpc,optional"`
	TimeConf    TimeConfig    `json:"time,optional"`

	RedisAddr   string `json:"redis_addr,optional"`        // Redis 地址（账户存储 + 交易判重），为空时使用本地存储
	BoltPath    string `json:"bolt_path,optional"`         // bbolt 数据文件，RedisAddr 为空时生效；都为空则仅内存
	MetricsAddr string `json:"metrics_addr,default=:9464"` // Prometheus 指标监听地址
}
