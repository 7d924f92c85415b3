package cqlstore

import (
	"os"
	"strings"
	"testing"

	"ChatSync/data/database/cql/cqlutil"
	"ChatSync/data/store/storetest"
	"ChatSync/logger"

	"go.uber.org/zap"
)

// 集成测试：需要本地 Cassandra/ScyllaDB，keyspace 预建。
// CHATSYNC_TEST_CQL_HOSTS=127.0.0.1:9042 CHATSYNC_TEST_CQL_KEYSPACE=chatsync_test go test ./data/store/cqlstore/
func TestCqlStoreSuite(t *testing.T) {
	hosts := os.Getenv("CHATSYNC_TEST_CQL_HOSTS")
	if hosts == "" {
		t.Skip("CHATSYNC_TEST_CQL_HOSTS not set, skip cql integration suite")
	}
	keyspace := os.Getenv("CHATSYNC_TEST_CQL_KEYSPACE")
	if keyspace == "" {
		keyspace = "chatsync_test"
	}
	logger.Replace(zap.NewNop())

	cli, err := cqlutil.NewCassandra(&cqlutil.Config{
		Hosts:    strings.Split(hosts, ","),
		Keyspace: keyspace,
	})
	if err != nil {
		t.Fatalf("connect cassandra: %v", err)
	}
	defer cli.Close()
	if err := EnsureSchema(cli.GetSession()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	storetest.RunStoreSuite(t, New(cli))
}
