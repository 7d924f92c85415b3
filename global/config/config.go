package config

import (
	"time"

	"ChatSync/data/database/cql/cqlutil"
	"ChatSync/data/database/mgo/mongoutil"
	"ChatSync/logger"
	"ChatSync/service/notify"
	redis "ChatSync/service/storage/redis"
	ids "ChatSync/tools/ids"
)

// 存储后端选择：文档库或列族库，二选一，同一套 data/store 契约。
const (
	BackendMongo     = "mongo"
	BackendCassandra = "cassandra"
)

// 通知驱动选择。
const (
	NotifyNone  = "none"
	NotifyKafka = "kafka"
	NotifyNats  = "nats"
)

type NotifyConfig struct {
	Driver string
	Kafka  notify.KafkaConfig
	Nats   notify.NatsConfig
}

type AppConfig struct {
	NodeID  int64 // 雪花ID节点号
	Backend string

	Mongo     mongoutil.Config
	Cassandra cqlutil.Config
	Redis     redis.Config

	Notify          NotifyConfig
	ProfileCacheTTL time.Duration
}

// In-code 配置（不读 YAML），部署时直接改这里。
var Global = AppConfig{
	NodeID:  100,
	Backend: BackendMongo,
	Mongo: mongoutil.Config{
		Uri:         "mongodb://localhost:27017",
		Database:    "chatsync",
		Username:    "root",
		Password:    "example",
		MaxPoolSize: 20,
		MaxRetry:    3,
	},
	Cassandra: cqlutil.Config{
		Hosts:    []string{"127.0.0.1:9042"},
		Keyspace: "chatsync",
	},
	Redis: redis.Config{
		Addr: "127.0.0.1:6379", DB: 0,
	},
	Notify: NotifyConfig{
		Driver: NotifyNone,
		Kafka:  notify.KafkaConfig{Brokers: []string{"127.0.0.1:9092"}, Topic: "chatsync.change"},
		Nats:   notify.NatsConfig{URL: "nats://127.0.0.1:4222", SubjectPrefix: "chatsync.change"},
	},
	ProfileCacheTTL: 10 * time.Minute,
}

func ConfigAll() {
	ConfigIds()
}

func ConfigIds() {
	logger.Infof("配置id生成 node=%d", Global.NodeID)
	ids.SetNodeID(Global.NodeID)
}

// BuildNotifier 按配置构建通知器，未配置时退回空实现。
func BuildNotifier() (notify.Notifier, error) {
	switch Global.Notify.Driver {
	case NotifyKafka:
		return notify.NewKafkaNotifier(&Global.Notify.Kafka)
	case NotifyNats:
		return notify.NewNatsNotifier(&Global.Notify.Nats)
	default:
		return notify.Noop{}, nil
	}
}
