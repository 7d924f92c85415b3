package profilecache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ChatSync/logger"
	"ChatSync/module/relation/model"
	errs "ChatSync/tools/errs"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "chatsync:profile:"
	defaultTTL = 10 * time.Minute
)

// Lookup 底层资料源（通常是 mongostore.ProfileStore）。
type Lookup interface {
	TakeProfile(ctx context.Context, userID string) (*model.UserProfile, error)
}

// Cache 旁路缓存装饰器：读优先走 Redis，未命中回源并回填。
// 缓存层故障只降级为日志，不阻断资料读取。
type Cache struct {
	rdb    redis.UniversalClient
	source Lookup
	ttl    time.Duration
}

func New(rdb redis.UniversalClient, source Lookup, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{rdb: rdb, source: source, ttl: ttl}
}

func cacheKey(userID string) string { return keyPrefix + userID }

func (c *Cache) TakeProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	if userID == "" {
		return nil, errs.ErrArgs.WrapMsg("empty user id")
	}
	data, err := c.rdb.Get(ctx, cacheKey(userID)).Bytes()
	if err == nil {
		var prof model.UserProfile
		if jerr := json.Unmarshal(data, &prof); jerr == nil {
			return &prof, nil
		}
		// 脏数据当未命中处理，回源覆盖
	} else if !errors.Is(err, redis.Nil) {
		logger.Warn("profile cache get failed", zap.String("user", userID), zap.Error(err))
	}

	prof, err := c.source.TakeProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data, jerr := json.Marshal(prof); jerr == nil {
		if serr := c.rdb.Set(ctx, cacheKey(userID), data, c.ttl).Err(); serr != nil {
			logger.Warn("profile cache set failed", zap.String("user", userID), zap.Error(serr))
		}
	}
	return prof, nil
}

// Invalidate 资料更新后调用，下一次读取回源。
func (c *Cache) Invalidate(ctx context.Context, userID string) {
	if err := c.rdb.Del(ctx, cacheKey(userID)).Err(); err != nil {
		logger.Warn("profile cache del failed", zap.String("user", userID), zap.Error(err))
	}
}
