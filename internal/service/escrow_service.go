package service

import (
	"context"
	"errors"
	"fmt"
	"nft-escrow-sol/internal/config"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/logic/instruction"
	"nft-escrow-sol/internal/logic/progress"
	"nft-escrow-sol/internal/metrics"
	"nft-escrow-sol/internal/mq"
	"nft-escrow-sol/internal/pkg/utils"
	"nft-escrow-sol/internal/runtime"
	"nft-escrow-sol/internal/svc"
	"nft-escrow-sol/internal/types"
	"nft-escrow-sol/pkg/logger"
	"runtime/debug"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	retryBackoff   = 500 * time.Millisecond
	maxSendRetries = 3
)

// ErrRejected 消息无法解码、签名无效或处理时 panic，直接跳过
var ErrRejected = errors.New("tx request rejected")

// Executor 交易执行器，*runtime.Runtime 实现该接口
type Executor interface {
	Execute(ctx context.Context, tx *domain.Transaction) (*runtime.Receipt, error)
}

// EscrowService 消费 tx topic，执行交易并把回执写入 receipt topic
type EscrowService struct {
	consumer  *kafka.Consumer
	producer  mq.Producer
	executor  Executor
	progress  *progress.ProgressManager
	metrics   *metrics.EscrowMetrics
	programID types.Pubkey
	kafkaConf config.KafkaConfig
	timeConf  config.TimeConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEscrowService(sc *svc.ServiceContext) *EscrowService {
	s := newEscrowService(sc.Producer, sc.Runtime, sc.Progress, sc.Processor.ProgramID(), sc.Config)
	s.consumer = sc.Consumer
	return s
}

func newEscrowService(
	producer mq.Producer,
	executor Executor,
	pm *progress.ProgressManager,
	programID types.Pubkey,
	c config.EscrowdConfig,
) *EscrowService {
	ctx, cancel := context.WithCancel(context.Background())
	return &EscrowService{
		producer:  producer,
		executor:  executor,
		progress:  pm,
		metrics:   metrics.Escrow(),
		programID: programID,
		kafkaConf: c.KafkaConf,
		timeConf:  c.TimeConf,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start 阻塞运行消费循环，直到 Stop
func (s *EscrowService) Start() {
	s.wg.Add(1)
	defer s.wg.Done()

	pollTimeout := s.timeConf.PollTimeoutMs
	if pollTimeout <= 0 {
		pollTimeout = 500
	}
	logger.Infof("[EscrowService:Start] consuming topic %s", s.kafkaConf.Topics.Tx)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		switch e := s.consumer.Poll(pollTimeout).(type) {
		case nil:
		case *kafka.Message:
			s.handleWithRetry(e)
		case kafka.Error:
			if e.IsFatal() {
				logger.Errorf("[EscrowService:Start] fatal kafka error: %v", e)
				return
			}
			logger.Warnf("[EscrowService:Start] kafka error: %v", e)
		default:
			logger.Debugf("[EscrowService:Start] ignored event: %v", e)
		}
	}
}

func (s *EscrowService) Stop() {
	s.cancel()
	s.wg.Wait()
}

// handleWithRetry 基础设施错误时原地重试，成功或被拒绝后提交 offset
func (s *EscrowService) handleWithRetry(msg *kafka.Message) {
	for {
		_, err := s.safeHandle(msg.Value)
		if err == nil || errors.Is(err, ErrRejected) {
			break
		}
		logger.Errorf("[EscrowService:Handle] %s, retry in %v: %v", msg.TopicPartition, retryBackoff, err)
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(retryBackoff):
		}
	}
	if _, err := s.consumer.CommitMessage(msg); err != nil {
		logger.Warnf("[EscrowService:Handle] commit %s failed: %v", msg.TopicPartition, err)
	}
}

func (s *EscrowService) safeHandle(value []byte) (receipt *runtime.Receipt, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[EscrowService:Handle] panic: %+v\nstack: %s", r, debug.Stack())
			err = fmt.Errorf("%w: panic: %v", ErrRejected, r)
		}
	}()
	return s.handle(s.ctx, value)
}

// handle 处理一条交易请求：
// 1. 解码并校验签名
// 2. 判重
// 3. 执行
// 4. 投递回执
// 返回 nil receipt 且 err 为 nil 表示重复交易
func (s *EscrowService) handle(ctx context.Context, value []byte) (*runtime.Receipt, error) {
	start := time.Now()

	// 1. 解码并校验签名
	req, err := mq.DecodeTxRequest(value)
	if err != nil {
		s.metrics.ObserveTransaction(metrics.ResultRejected, 0)
		logger.Warnf("[EscrowService:Handle] decode failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	tx, err := req.Verify()
	if err != nil {
		s.metrics.ObserveTransaction(metrics.ResultRejected, 0)
		logger.Warnf("[EscrowService:Handle] verify failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	txID, err := tx.ID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}

	// 2. 判重
	ok, status, err := s.progress.Acquire(ctx, txID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.ObserveTransaction(metrics.ResultDuplicate, 0)
		logger.Infof("[EscrowService:Handle] skip duplicated tx %s (%s)", txID, status)
		return nil, nil
	}

	// 执行中 panic 的交易标记为 Invalid，不再重放
	defer func() {
		if r := recover(); r != nil {
			s.metrics.ObserveTransaction(metrics.ResultError, 0)
			if err := s.progress.Complete(ctx, txID, progress.TxInvalid); err != nil {
				logger.Warnf("[EscrowService:Handle] mark tx %s invalid failed: %v", txID, err)
			}
			panic(r)
		}
	}()

	// 3. 执行
	receipt, err := s.executor.Execute(ctx, tx)
	if err != nil {
		s.progress.Abort(ctx, txID)
		s.metrics.ObserveTransaction(metrics.ResultError, 0)
		return nil, err
	}
	s.observe(tx, receipt, time.Since(start))

	// 4. 状态已提交，回执投递失败只记录
	if err := s.publish(ctx, tx, receipt); err != nil {
		logger.Errorf("[EscrowService:Handle] publish receipt %s failed: %v", txID, err)
	}
	if err := s.progress.Complete(ctx, txID, progress.TxProcessed); err != nil {
		logger.Warnf("[EscrowService:Handle] mark tx %s processed failed: %v", txID, err)
	}
	return receipt, nil
}

func (s *EscrowService) publish(ctx context.Context, tx *domain.Transaction, receipt *runtime.Receipt) error {
	value, err := mq.EncodeReceipt(receipt)
	if err != nil {
		return err
	}
	partitionKey := receiptPartitionKey(tx)
	job := &mq.KafkaJob{
		Topic:     s.kafkaConf.Topics.Receipt,
		Partition: utils.PartitionForKey(partitionKey, s.kafkaConf.Partitions.Receipt),
		Key:       receipt.TxID[:],
		Value:     value,
	}

	timeout := time.Duration(s.timeConf.SendTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	for attempt := 1; ; attempt++ {
		_, failed := mq.SendKafkaJobs(ctx, s.producer, []*mq.KafkaJob{job}, timeout)
		if len(failed) == 0 {
			s.metrics.ObserveReceipt(nil)
			return nil
		}
		err = failed[0].Err
		s.metrics.ObserveReceipt(err)
		if attempt >= maxSendRetries || ctx.Err() != nil {
			return err
		}
	}
}

func (s *EscrowService) observe(tx *domain.Transaction, receipt *runtime.Receipt, elapsed time.Duration) {
	result := metrics.ResultSuccess
	if !receipt.Success {
		result = metrics.ResultFailed
	}
	s.metrics.ObserveTransaction(result, elapsed)
	for i := range tx.Instructions {
		ix := &tx.Instructions[i]
		if ix.ProgramID != s.programID {
			continue
		}
		kind := "unknown"
		if decoded, err := instruction.Decode(ix.Data); err == nil {
			kind = decoded.Kind.String()
		}
		s.metrics.ObserveInstruction(kind, receipt.Success)
	}
}

// receiptPartitionKey 取第一个可写的非签名账户，同一账户的回执落在同一分区
func receiptPartitionKey(tx *domain.Transaction) types.Pubkey {
	for _, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if meta.IsWritable && !meta.IsSigner {
				return meta.Pubkey
			}
		}
	}
	if len(tx.Signers) > 0 {
		return tx.Signers[0]
	}
	return types.Pubkey{}
}
