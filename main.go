package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ChatSync/data/database/cql/cqlutil"
	"ChatSync/data/store"
	"ChatSync/data/store/cqlstore"
	"ChatSync/data/store/mongostore"
	"ChatSync/global/config"
	"ChatSync/logger"
	"ChatSync/module/conversation"
	"ChatSync/module/group"
	"ChatSync/module/relation"
	mgosrv "ChatSync/service/mgo"
	"ChatSync/service/notify"
	"ChatSync/service/profilecache"
	redissrv "ChatSync/service/storage/redis"

	"go.uber.org/zap"
)

type app struct {
	relations     *relation.Service
	conversations *conversation.Service
	groups        *group.Service
	notifier      notify.Notifier
}

// buildBackend 按配置选存储后端，两个后端实现同一套 data/store 契约。
func buildBackend(ctx context.Context) (store.Store, profilecache.Lookup, error) {
	switch config.Global.Backend {
	case config.BackendCassandra:
		cli, err := cqlutil.NewCassandra(&config.Global.Cassandra)
		if err != nil {
			return nil, nil, err
		}
		if err := cqlstore.EnsureSchema(cli.GetSession()); err != nil {
			return nil, nil, err
		}
		return cqlstore.New(cli), cqlstore.NewProfileStore(cli.GetSession()), nil
	default:
		// 异步启动 + 自动重连的连接管理器，这里只等首次就绪
		mgosrv.StartAsync(ctx, &config.Global.Mongo)
		readyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := mgosrv.WaitReady(readyCtx, mgosrv.Manager()); err != nil {
			return nil, nil, err
		}
		cli := mgosrv.Client()
		st := mongostore.New(cli)
		if err := st.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		profiles, err := mongostore.NewProfileStore(cli)
		if err != nil {
			return nil, nil, err
		}
		return st, profiles, nil
	}
}

func main() {
	config.ConfigAll()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, profileSource, err := buildBackend(ctx)
	if err != nil {
		logger.Error("build storage backend failed",
			zap.String("backend", config.Global.Backend), zap.Error(err))
		os.Exit(1)
	}

	// 资料读取走旁路缓存；Redis 不可用时直接回源
	var profiles profilecache.Lookup = profileSource
	if err := redissrv.InitRedis(config.Global.Redis); err != nil {
		logger.Warn("redis unavailable, profile cache disabled", zap.Error(err))
	} else {
		profiles = profilecache.New(redissrv.GetRedis(), profileSource, config.Global.ProfileCacheTTL)
	}

	notifier, err := config.BuildNotifier()
	if err != nil {
		logger.Error("build notifier failed",
			zap.String("driver", config.Global.Notify.Driver), zap.Error(err))
		os.Exit(1)
	}

	conversations := conversation.NewService(st, profiles, notifier)
	a := &app{
		relations:     relation.NewService(st, profiles, notifier),
		conversations: conversations,
		groups:        group.NewService(st, conversations, notifier),
		notifier:      notifier,
	}

	logger.Info("chatsync ready",
		zap.String("backend", config.Global.Backend),
		zap.String("notify", config.Global.Notify.Driver))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if err := a.notifier.Close(); err != nil {
		logger.Warn("close notifier failed", zap.Error(err))
	}
	_ = redissrv.CloseRedis()
	logger.Info("chatsync stopped")
}
