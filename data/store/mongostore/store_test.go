package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"ChatSync/data/database/mgo/mongoutil"
	"ChatSync/data/store/storetest"
	"ChatSync/logger"

	"go.uber.org/zap"
)

// 集成测试：需要本地副本集（事务依赖 replica set）。
// CHATSYNC_TEST_MONGO_URI=mongodb://localhost:27017/?replicaSet=rs0 go test ./data/store/mongostore/
func TestMongoStoreSuite(t *testing.T) {
	uri := os.Getenv("CHATSYNC_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CHATSYNC_TEST_MONGO_URI not set, skip mongo integration suite")
	}
	logger.Replace(zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cli, err := mongoutil.NewMongoDB(ctx, &mongoutil.Config{
		Uri:      uri,
		Database: "chatsync_test",
		MaxRetry: 1,
	})
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	st := New(cli)
	if err := st.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	storetest.RunStoreSuite(t, st)
}
