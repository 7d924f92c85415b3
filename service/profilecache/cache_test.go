package profilecache

import (
	"context"
	"os"
	"testing"
	"time"

	"ChatSync/logger"
	"ChatSync/module/relation/model"
	errs "ChatSync/tools/errs"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSource struct {
	calls    int
	profiles map[string]*model.UserProfile
}

func (s *countingSource) TakeProfile(_ context.Context, userID string) (*model.UserProfile, error) {
	s.calls++
	if prof, ok := s.profiles[userID]; ok {
		return prof, nil
	}
	return nil, errs.ErrRecordNotFound.WrapMsg("no such user", "user", userID)
}

// 集成测试：需要本地 Redis。
// CHATSYNC_TEST_REDIS_ADDR=127.0.0.1:6379 go test ./service/profilecache/
func TestCacheAside(t *testing.T) {
	addr := os.Getenv("CHATSYNC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CHATSYNC_TEST_REDIS_ADDR not set, skip redis integration test")
	}
	logger.Replace(zap.NewNop())

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())

	userID := "cache_user_" + time.Now().Format("150405.000")
	source := &countingSource{profiles: map[string]*model.UserProfile{
		userID: {UserID: userID, Nickname: "阿强", FaceURL: "http://x/a.png"},
	}}
	cache := New(rdb, source, time.Minute)
	defer cache.Invalidate(ctx, userID)

	// 首读回源并回填
	prof, err := cache.TakeProfile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "阿强", prof.Nickname)
	require.Equal(t, 1, source.calls)

	// 二读命中缓存，不再回源
	prof, err = cache.TakeProfile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "阿强", prof.Nickname)
	require.Equal(t, 1, source.calls)

	// 失效后再读重新回源
	cache.Invalidate(ctx, userID)
	_, err = cache.TakeProfile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 2, source.calls)

	// 未命中不做负缓存
	_, err = cache.TakeProfile(ctx, "ghost_"+userID)
	require.True(t, errs.ErrRecordNotFound.Is(err))
}
