package cqlutil

import (
	"ChatSync/tools/errs"

	"github.com/gocql/gocql"
)

// Check 建连并探活一次，仅用于启动前校验。
func Check(config *Config) error {
	cli, err := NewCassandra(config)
	if err != nil {
		return err
	}
	defer cli.Close()

	if err := cli.GetSession().Query("SELECT release_version FROM system.local").Exec(); err != nil {
		return errs.WrapMsg(err, "Cassandra probe failed", "Hosts", config.Hosts)
	}
	return nil
}

// IsNotFound 判断是否“未命中”哨兵错误。
func IsNotFound(err error) bool {
	return err == gocql.ErrNotFound
}
