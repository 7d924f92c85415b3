package model

// Message 是一条消息的主干数据。MsgID 由外部单调ID源（tools/ids）生成，
// 可直接作为会话内的自然排序键。
type Message struct {
	ConversationID string `bson:"conversation_id" json:"conversation_id"`
	MsgID          int64  `bson:"msg_id" json:"msg_id"`

	SendID      string `bson:"send_id" json:"send_id"`           // 发送者ID
	ContentType int32  `bson:"content_type" json:"content_type"` // 1=文本,2=图片,3=语音...
	Content     string `bson:"content" json:"content"`

	SendTime int64 `bson:"send_time" json:"send_time"` // Unix ms
}

func (Message) GetTableName() string { return "message" }

const (
	MessageFieldConversationID = "conversation_id"
	MessageFieldMsgID          = "msg_id"
	MessageFieldSendID         = "send_id"
	MessageFieldContentType    = "content_type"
	MessageFieldContent        = "content"
	MessageFieldSendTime       = "send_time"
)
