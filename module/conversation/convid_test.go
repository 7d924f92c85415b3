package conversation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestP2PConversationIDDeterministic(t *testing.T) {
	// 两个方向派生出同一个会话ID
	require.Equal(t, P2PConversationID("alice", "bob"), P2PConversationID("bob", "alice"))
	require.Equal(t, "p2p:alice:bob", P2PConversationID("bob", "alice"))
	require.NotEqual(t, P2PConversationID("alice", "bob"), P2PConversationID("alice", "carol"))
}

func TestGroupConversationID(t *testing.T) {
	require.Equal(t, "grp:g100", GroupConversationID("g100"))
	require.True(t, IsGroupConversationID("grp:g100"))
	require.False(t, IsGroupConversationID("p2p:alice:bob"))
}

func TestTruncatePreview(t *testing.T) {
	require.Equal(t, "hello", truncatePreview("hello"))

	// 恰好 64 个 rune 不截断
	exact := make([]rune, 0, 64)
	for i := 0; i < 64; i++ {
		exact = append(exact, '好')
	}
	require.Equal(t, string(exact), truncatePreview(string(exact)))

	// 超长按 rune 截断，不会把多字节字符劈开
	long := string(exact) + "尾巴"
	got := truncatePreview(long)
	require.Equal(t, string(exact), got)
	require.Equal(t, 64, len([]rune(got)))
}
