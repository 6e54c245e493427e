package mq

import (
	"context"
	"fmt"
	"nft-escrow-sol/internal/config"
	"nft-escrow-sol/internal/pkg/utils"
	"nft-escrow-sol/pkg/logger"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	defaultBatchSize  = 32 * 1024
	defaultLingerMs   = 5
	defaultPartitions = 8
	adminTimeoutMs    = 10000
)

// EnsureTopics 检查 tx / receipt topic，不存在时按配置创建
func EnsureTopics(cfg config.KafkaConfig) error {
	adminClient, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer adminClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), adminTimeoutMs*time.Millisecond)
	defer cancel()

	meta, err := adminClient.GetMetadata(nil, true, adminTimeoutMs)
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}
	brokerCount := len(meta.Brokers)

	replicationFactor := 1
	if brokerCount > 1 {
		replicationFactor = 2
	}
	logger.Infof("[Kafka:EnsureTopics] broker count = %d, using replication factor = %d", brokerCount, replicationFactor)

	existingTopics := make(map[string]bool, len(meta.Topics))
	for _, topic := range meta.Topics {
		existingTopics[topic.Topic] = true
	}

	// 1. 收集缺失的 topic
	var topicsToCreate []kafka.TopicSpecification
	for topic, partitions := range map[string]int{
		cfg.Topics.Tx:      cfg.Partitions.Tx,
		cfg.Topics.Receipt: cfg.Partitions.Receipt,
	} {
		if existingTopics[topic] {
			continue
		}
		if partitions <= 0 {
			partitions = defaultPartitions
		}
		topicsToCreate = append(topicsToCreate, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: replicationFactor,
		})
	}
	if len(topicsToCreate) == 0 {
		return nil
	}

	// 2. 创建并检查结果
	results, err := adminClient.CreateTopics(ctx, topicsToCreate)
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}
	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %w", result.Topic, result.Error)
		}
		logger.Infof("[Kafka:EnsureTopics] topic %s ready", result.Topic)
	}
	return nil
}

// NewKafkaProducer 创建回执生产者
func NewKafkaProducer(cfg config.KafkaConfig) (*kafka.Producer, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	lingerMs := cfg.LingerMs
	if lingerMs < 0 {
		lingerMs = defaultLingerMs
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		// 基础连接
		"bootstrap.servers": cfg.Brokers,
		"client.id":         fmt.Sprintf("nft-escrow-producer-%s", utils.GetLocalIP()),

		// 可靠性保障
		"acks":                                  "all",
		"enable.idempotence":                    true,
		"max.in.flight.requests.per.connection": 5, // 幂等场景下最大值为 5

		// 超时与重试
		"delivery.timeout.ms": 30000,
		"request.timeout.ms":  30000,
		"retries":             5,
		"retry.backoff.ms":    100,

		// 性能优化
		"batch.size":       batchSize,
		"linger.ms":        lingerMs,
		"compression.type": "none",

		// 消息大小
		"message.max.bytes": 2 * 1024 * 1024, // 2MB
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return producer, nil
}
