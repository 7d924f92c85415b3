package model

const (
	ConversationTypeP2P   int32 = 1 // 单聊
	ConversationTypeGroup int32 = 2 // 群聊
)

// LastMsgPreviewLen 会话缓存的最后一条消息预览截断长度（按 rune 计）。
const LastMsgPreviewLen = 64

// Conversation 表示用户与某个会话（单聊/群聊）的本地视图：
// 冗余展示字段 + 最后一条消息缓存 + 已读光标。未读数不落库，读取时推导。
type Conversation struct {
	OwnerUserID      string `bson:"owner_user_id" json:"owner_user_id"`     // 会话归属用户ID（谁的会话列表）
	ConversationID   string `bson:"conversation_id" json:"conversation_id"` // 规则见 convid.go
	ConversationType int32  `bson:"conversation_type" json:"conversation_type"`
	UserID           string `bson:"user_id,omitempty" json:"user_id,omitempty"`   // 单聊对端用户ID（仅单聊有效）
	GroupID          string `bson:"group_id,omitempty" json:"group_id,omitempty"` // 群ID（仅群聊有效）

	ShowName string `bson:"show_name" json:"show_name"` // 冗余展示名（备注 > 昵称 > 原始资料）
	FaceURL  string `bson:"face_url" json:"face_url"`   // 冗余头像

	LastReadMsgID int64 `bson:"last_read_msg_id" json:"last_read_msg_id"` // 已读光标，单调不降

	LastMsgID   int64  `bson:"last_msg_id" json:"last_msg_id"` // 最后一条消息缓存
	LastMsgText string `bson:"last_msg_text" json:"last_msg_text"`
	LastMsgTime int64  `bson:"last_msg_time" json:"last_msg_time"` // Unix ms

	CreateTime int64 `bson:"create_time" json:"create_time"`
	UpdateTime int64 `bson:"update_time" json:"update_time"`
}

func (Conversation) GetTableName() string { return "conversation" }

const (
	ConversationFieldOwnerUserID    = "owner_user_id"
	ConversationFieldConversationID = "conversation_id"
	ConversationFieldType           = "conversation_type"
	ConversationFieldUserID         = "user_id"
	ConversationFieldGroupID        = "group_id"
	ConversationFieldShowName       = "show_name"
	ConversationFieldFaceURL        = "face_url"
	ConversationFieldLastReadMsgID  = "last_read_msg_id"
	ConversationFieldLastMsgID      = "last_msg_id"
	ConversationFieldLastMsgText    = "last_msg_text"
	ConversationFieldLastMsgTime    = "last_msg_time"
	ConversationFieldCreateTime     = "create_time"
	ConversationFieldUpdateTime     = "update_time"
)
