package notify

import (
	"context"
	"encoding/json"

	errs "ChatSync/tools/errs"

	"github.com/Shopify/sarama"
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (c *KafkaConfig) ValidateAndSetDefaults() error {
	if len(c.Brokers) == 0 {
		return errs.ErrArgs.WrapMsg("kafka brokers empty")
	}
	if c.Topic == "" {
		c.Topic = "chatsync.change"
	}
	return nil
}

// KafkaNotifier 同步生产者通知器。消息 key 取 owner_user_id，
// 保证同一用户的变更通知落在同一分区、保持产生序。
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaNotifier(cfg *KafkaConfig) (*KafkaNotifier, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Partitioner = sarama.NewHashPartitioner

	p, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, errs.WrapMsg(err, "new kafka sync producer failed", "brokers", cfg.Brokers[0])
	}
	return &KafkaNotifier{producer: p, topic: cfg.Topic}, nil
}

func (n *KafkaNotifier) Publish(_ context.Context, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errs.WrapMsg(err, "marshal notify event failed")
	}
	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(ev.OwnerUserID),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := n.producer.SendMessage(msg); err != nil {
		return errs.WrapMsg(err, "kafka send failed", "topic", n.topic, "owner", ev.OwnerUserID)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
