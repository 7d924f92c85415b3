package mongostore

import (
	"sort"
	"testing"

	errs "ChatSync/tools/errs"

	"github.com/stretchr/testify/require"
)

func TestFormatVersionOrdering(t *testing.T) {
	// 定宽编码的字典序必须与数值序一致，范围查询才正确
	seqs := []int64{1, 2, 9, 10, 11, 99, 100, 1<<40 + 7}
	encoded := make([]string, 0, len(seqs))
	for _, seq := range seqs {
		encoded = append(encoded, formatVersion(seq))
	}
	require.True(t, sort.StringsAreSorted(encoded))
}

func TestVersionRoundTrip(t *testing.T) {
	for _, seq := range []int64{0, 1, 42, 1 << 50} {
		n, err := parseVersion(formatVersion(seq))
		require.NoError(t, err)
		require.Equal(t, seq, n)
	}
}

func TestParseVersionInvalid(t *testing.T) {
	for _, v := range []string{"", "abc", "12x", "-5", "99999999999999999999999999"} {
		_, err := parseVersion(v)
		require.True(t, errs.ErrInvalidVersion.Is(err), "version %q", v)
	}
}
