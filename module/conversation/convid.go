package conversation

import "strings"

const (
	p2pIDPrefix   = "p2p:"
	groupIDPrefix = "grp:"
)

// P2PConversationID 由无序用户对确定性派生单聊会话ID：
// 字典序小的在前，双方各自的会话行指向同一个ID。
func P2PConversationID(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return p2pIDPrefix + userA + ":" + userB
}

// GroupConversationID 群聊会话ID。
func GroupConversationID(groupID string) string {
	return groupIDPrefix + groupID
}

func IsGroupConversationID(conversationID string) bool {
	return strings.HasPrefix(conversationID, groupIDPrefix)
}
