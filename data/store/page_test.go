package store

import (
	"testing"

	errs "ChatSync/tools/errs"

	"github.com/stretchr/testify/require"
)

func TestPageTokenRoundTrip(t *testing.T) {
	for _, id := range []string{"user_001", "p2p:alice:bob", "带中文的ID", "a"} {
		token := EncodePageToken(id)
		require.NotEmpty(t, token)
		got, err := DecodePageToken(token)
		require.NoError(t, err)
		require.Equal(t, id, got)
	}
}

func TestPageTokenEmptyIsFirstPage(t *testing.T) {
	require.Empty(t, EncodePageToken(""))
	got, err := DecodePageToken("")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestPageTokenInvalid(t *testing.T) {
	for _, token := range []string{"%%%", "!!not-base64!!", "====="} {
		_, err := DecodePageToken(token)
		require.True(t, errs.ErrInvalidPageToken.Is(err), "token %q", token)
	}
}

func TestNormalizePageSize(t *testing.T) {
	require.Equal(t, DefaultPageSize, NormalizePageSize(0))
	require.Equal(t, DefaultPageSize, NormalizePageSize(-1))
	require.Equal(t, 10, NormalizePageSize(10))
	require.Equal(t, MaxPageSize, NormalizePageSize(MaxPageSize+1))
}

func TestNormalizeChangeLimit(t *testing.T) {
	require.Equal(t, MaxChangeLimit, NormalizeChangeLimit(0))
	require.Equal(t, MaxChangeLimit, NormalizeChangeLimit(-5))
	require.Equal(t, 1, NormalizeChangeLimit(1))
	require.Equal(t, MaxChangeLimit, NormalizeChangeLimit(MaxChangeLimit))
	// 超过上限收敛到 200，而不是报错
	require.Equal(t, MaxChangeLimit, NormalizeChangeLimit(1000))
}
