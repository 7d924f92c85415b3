package errs

// 业务错误码。500 为服务内部错误，1xxx 为通用参数/记录类错误，
// 11xx 为关系同步域错误，12xx 为存储层错误。
const (
	ServerInternalError = 500 // 服务器内部错误

	ArgsError           = 1001 // 参数错误（自引用操作、越界分页等）
	RecordNotFoundError = 1002 // 记录不存在
	DuplicateKeyError   = 1003 // 记录已存在（重复好友/重复拉黑）

	InvalidVersionError         = 1101 // 非法的同步版本号
	InvalidPageTokenError       = 1102 // 非法的分页游标
	StrangerHasRelationshipErr  = 1103 // 拉黑陌生人时已存在关系
	ConversationNotFoundError   = 1104 // 会话不存在
	GroupMemberNotFoundError    = 1105 // 群成员关系不存在
	GroupMemberDuplicateError   = 1106 // 重复加群

	StorageTxError = 1201 // 存储事务失败（可重试）
)

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "ServerInternalError")

	ErrArgs           = NewCodeError(ArgsError, "ArgsError")
	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "RecordNotFoundError")
	ErrDuplicateKey   = NewCodeError(DuplicateKeyError, "DuplicateKeyError")

	ErrInvalidVersion          = NewCodeError(InvalidVersionError, "InvalidVersionError")
	ErrInvalidPageToken        = NewCodeError(InvalidPageTokenError, "InvalidPageTokenError")
	ErrStrangerHasRelationship = NewCodeError(StrangerHasRelationshipErr, "StrangerHasRelationshipError")
	ErrConversationNotFound    = NewCodeError(ConversationNotFoundError, "ConversationNotFoundError")
	ErrGroupMemberNotFound     = NewCodeError(GroupMemberNotFoundError, "GroupMemberNotFoundError")
	ErrGroupMemberDuplicate    = NewCodeError(GroupMemberDuplicateError, "GroupMemberDuplicateError")

	ErrStorageTx = NewCodeError(StorageTxError, "StorageTxError")
)

func init() {
	// 细分的 NotFound/Duplicate 归属到通用父码，调用方可只判父码。
	_ = DefaultCodeRelation.Add(RecordNotFoundError, ConversationNotFoundError, GroupMemberNotFoundError)
	_ = DefaultCodeRelation.Add(DuplicateKeyError, GroupMemberDuplicateError, StrangerHasRelationshipErr)
}
