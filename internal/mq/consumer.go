package mq

import (
	"fmt"
	"nft-escrow-sol/internal/config"
	"nft-escrow-sol/internal/pkg/utils"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// NewKafkaConsumer 创建交易请求消费者，关闭自动提交，回执发送成功后手动提交 offset
func NewKafkaConsumer(cfg config.KafkaConfig) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"client.id":          fmt.Sprintf("nft-escrow-consumer-%s", utils.GetLocalIP()),
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,

		// 拉取与会话参数
		"fetch.max.bytes":      8 * 1024 * 1024,
		"max.poll.interval.ms": 300000,
		"session.timeout.ms":   30000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	if err := consumer.SubscribeTopics([]string{cfg.Topics.Tx}, nil); err != nil {
		_ = consumer.Close()
		return nil, fmt.Errorf("failed to subscribe %s: %w", cfg.Topics.Tx, err)
	}
	return consumer, nil
}
