package svc

import (
	"context"
	"fmt"
	"nft-escrow-sol/internal/config"
	"nft-escrow-sol/internal/logic/processor"
	"nft-escrow-sol/internal/logic/progress"
	"nft-escrow-sol/internal/mq"
	"nft-escrow-sol/internal/runtime"
	"nft-escrow-sol/internal/store"
	"nft-escrow-sol/internal/types"
	"nft-escrow-sol/pkg/logger"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"
)

// ServiceContext 包含托管执行服务的全部资源
type ServiceContext struct {
	Config    config.EscrowdConfig
	Redis     *redis.Client // RedisAddr 为空时为 nil
	Store     store.AccountStore
	Progress  *progress.ProgressManager
	Processor *processor.Processor
	Runtime   *runtime.Runtime
	Producer  *kafka.Producer
	Consumer  *kafka.Consumer
}

// NewServiceContext 创建服务上下文，任一资源初始化失败时释放已创建的资源
func NewServiceContext(c config.EscrowdConfig) (*ServiceContext, error) {
	ctx := &ServiceContext{Config: c}
	if err := ctx.init(); err != nil {
		ctx.Close()
		return nil, err
	}
	logger.Infof("[Svc:Init] 服务上下文初始化完成, program=%s, custodian=%s",
		ctx.Processor.ProgramID(), ctx.Processor.Custodian())
	return ctx, nil
}

func (ctx *ServiceContext) init() error {
	c := ctx.Config

	// 1. 托管程序
	opts, err := c.ProgramConf.ToProgramOptions()
	if err != nil {
		return err
	}
	if ctx.Processor, err = processor.NewProcessor(opts); err != nil {
		return fmt.Errorf("init processor: %w", err)
	}

	// 2. 账户存储与判重
	if err = ctx.initStores(); err != nil {
		return err
	}

	// 3. 运行时
	ctx.Runtime = runtime.New(ctx.Store, ctx.Processor, runtime.Options{})

	// 4. 从 RPC 克隆初始账户（可选）
	if err = ctx.cloneAccounts(); err != nil {
		return err
	}

	// 5. Kafka
	if err = mq.EnsureTopics(c.KafkaConf); err != nil {
		logger.Errorf("[Svc:Init] Kafka topic 初始化失败: %v", err)
		return err
	}
	if ctx.Producer, err = mq.NewKafkaProducer(c.KafkaConf); err != nil {
		logger.Errorf("[Svc:Init] Kafka producer 初始化失败: %v", err)
		return err
	}
	if ctx.Consumer, err = mq.NewKafkaConsumer(c.KafkaConf); err != nil {
		logger.Errorf("[Svc:Init] Kafka consumer 初始化失败: %v", err)
		return err
	}
	return nil
}

func (ctx *ServiceContext) initStores() error {
	c := ctx.Config
	switch {
	case c.RedisAddr != "":
		ctx.Redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := ctx.Redis.Ping(pingCtx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", c.RedisAddr, err)
		}
		ctx.Store = store.NewRedisStore(ctx.Redis)
		ctx.Progress = progress.NewProgressManager(progress.NewRedisProgressStore(ctx.Redis))
		logger.Infof("[Svc:Init] 使用 Redis 存储: %s", c.RedisAddr)
		return nil

	case c.BoltPath != "":
		st, err := store.NewBoltStore(c.BoltPath)
		if err != nil {
			return err
		}
		ctx.Store = st
		logger.Infof("[Svc:Init] 使用 bbolt 存储: %s", c.BoltPath)

	default:
		ctx.Store = store.NewMemoryStore()
		logger.Warnf("[Svc:Init] 未配置 redis_addr / bolt_path，账户仅保存在内存中")
	}
	ctx.Progress = progress.NewProgressManager(progress.NewMemoryProgressStore())
	return nil
}

func (ctx *ServiceContext) cloneAccounts() error {
	rc := ctx.Config.RpcConf
	if rc.Endpoint == "" || len(rc.CloneAccounts) == 0 {
		return nil
	}
	keys, err := types.PubkeysFromBase58(rc.CloneAccounts)
	if err != nil {
		return fmt.Errorf("rpc.clone_accounts: %w", err)
	}
	cloneCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err = runtime.CloneAccounts(cloneCtx, client.NewClient(rc.Endpoint), ctx.Store, keys)
	return err
}

// Close 关闭服务上下文中的资源
func (ctx *ServiceContext) Close() {
	if ctx.Consumer != nil {
		if err := ctx.Consumer.Close(); err != nil {
			logger.Warnf("[Svc:Close] consumer close: %v", err)
		}
	}
	if ctx.Producer != nil {
		ctx.Producer.Flush(3000)
		ctx.Producer.Close()
	}
	if ctx.Store != nil {
		if err := ctx.Store.Close(); err != nil {
			logger.Warnf("[Svc:Close] store close: %v", err)
		}
	}
	if ctx.Redis != nil {
		_ = ctx.Redis.Close()
	}
}
