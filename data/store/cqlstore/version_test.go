package cqlstore

import (
	"testing"

	errs "ChatSync/tools/errs"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/require"
)

func TestVersionRoundTrip(t *testing.T) {
	ver := newVersion()
	parsed, err := parseVersion(ver.String())
	require.NoError(t, err)
	require.Equal(t, ver, parsed)
}

func TestParseVersionInvalid(t *testing.T) {
	// 非 timeuuid（v4 随机 UUID）和格式错误的串都必须被拒绝
	random, err := gocql.RandomUUID()
	require.NoError(t, err)

	for _, v := range []string{"", "abc", "00000001", random.String()} {
		_, err := parseVersion(v)
		require.True(t, errs.ErrInvalidVersion.Is(err), "version %q", v)
	}
}

func TestVersionTimeOrdering(t *testing.T) {
	// timeuuid 携带 100ns 时间戳，后生成的时间戳不小于先生成的
	a := newVersion()
	b := newVersion()
	require.False(t, b.Time().Before(a.Time()))
}
