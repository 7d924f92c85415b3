package model

// ConversationChangeKind 标识一次会话视图变更的类型。
type ConversationChangeKind int32

const (
	ConversationChangeCreated      ConversationChangeKind = 1 // 会话首次物化
	ConversationChangeInfoUpdated  ConversationChangeKind = 2 // 展示名/头像冗余字段刷新
	ConversationChangeNewMessage   ConversationChangeKind = 3 // 新消息（最后消息缓存被覆盖）
	ConversationChangeReadMessages ConversationChangeKind = 4 // 已读光标推进
	ConversationChangeRemoved      ConversationChangeKind = 5 // 会话移除（仅群聊退群）
)

// ConversationChange 会话变更日志记录，语义同 relation 侧：只增不改，owner 内按 version 全序。
type ConversationChange struct {
	OwnerUserID    string                 `bson:"owner_user_id" json:"owner_user_id"`
	Version        string                 `bson:"version" json:"version"`
	ConversationID string                 `bson:"conversation_id" json:"conversation_id"`
	Kind           ConversationChangeKind `bson:"kind" json:"kind"`

	Payload map[string]string `bson:"payload,omitempty" json:"payload,omitempty"`

	CreateTime int64 `bson:"create_time" json:"create_time"`
}

func (ConversationChange) GetTableName() string { return "conversation_change" }

const (
	ConvPayloadKeyShowName   = "show_name"
	ConvPayloadKeyFaceURL    = "face_url"
	ConvPayloadKeyLastMsgID  = "last_msg_id"
	ConvPayloadKeyLastRead   = "last_read_msg_id"
	ConvPayloadKeyMsgPreview = "last_msg_text"
)
