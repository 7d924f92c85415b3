package cqlstore

import (
	errs "ChatSync/tools/errs"

	"github.com/gocql/gocql"
)

// timeuuid 版本：100ns 时间戳 + 时钟序列 + 节点，自然序与产生序一致，
// 不需要 owner 级计数器即可保证同 owner 内单调。

func newVersion() gocql.UUID {
	return gocql.TimeUUID()
}

// parseVersion 解析 timeuuid 版本号；非法或非 v1 一律 ErrInvalidVersion。
func parseVersion(v string) (gocql.UUID, error) {
	u, err := gocql.ParseUUID(v)
	if err != nil || u.Version() != 1 {
		return gocql.UUID{}, errs.ErrInvalidVersion.WrapMsg("bad timeuuid version", "version", v)
	}
	return u, nil
}
