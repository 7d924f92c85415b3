package store

import (
	"context"

	convmodel "ChatSync/module/conversation/model"
	groupmodel "ChatSync/module/group/model"
	relationmodel "ChatSync/module/relation/model"
)

// 同一契约由两个后端实现：mongostore（文档库，session 事务 + 计数器版本号）
// 与 cqlstore（列族库，logged batch + timeuuid 版本号）。
// 版本号对调用方是不透明字符串，编码差异不允许泄漏出适配器。

const (
	// MaxChangeLimit 变更拉取单次上限，调用方传更大值会被收敛。
	MaxChangeLimit = 200

	DefaultPageSize = 50
	MaxPageSize     = 500
)

type Action int32

const (
	ActionUpsert Action = 1
	ActionDelete Action = 2
)

// RelationMutation 描述一次关系实体写 + 变更日志追加的原子单元。
// Change.Version 与 Change.CreateTime 由适配器在事务内分配，调用方留空。
type RelationMutation struct {
	OwnerUserID  string
	TargetUserID string
	Action       Action
	Row          *relationmodel.Relation // Upsert 时必填
	Change       *relationmodel.RelationChange
}

// ConversationMutation 同 RelationMutation，作用于会话视图行。
type ConversationMutation struct {
	OwnerUserID    string
	ConversationID string
	Action         Action
	Row            *convmodel.Conversation
	Change         *convmodel.ConversationChange
}

// GroupMutation 同上，作用于群成员关系行。
type GroupMutation struct {
	OwnerUserID string
	GroupID     string
	Action      Action
	Row         *groupmodel.UserGroup
	Change      *groupmodel.GroupChange
}

type RelationPage struct {
	Relations     []*relationmodel.Relation
	NextPageToken string
	HasMore       bool
}

type ConversationPage struct {
	Conversations []*convmodel.Conversation
	NextPageToken string
	HasMore       bool
}

type UserGroupPage struct {
	Groups        []*groupmodel.UserGroup
	NextPageToken string
	HasMore       bool
}

// RelationChangeSet 是一次增量同步应答：FullSync=true 表示 afterVersion 为空、
// 调用方应改走全量列表；Version 为本批最后一条记录的版本（无记录时回传入参）。
type RelationChangeSet struct {
	FullSync bool
	Version  string
	Changes  []*relationmodel.RelationChange
}

type ConversationChangeSet struct {
	FullSync bool
	Version  string
	Changes  []*convmodel.ConversationChange
}

type GroupChangeSet struct {
	FullSync bool
	Version  string
	Changes  []*groupmodel.GroupChange
}

type RelationStore interface {
	// TakeRelation 点查，未命中返回 errs.ErrRecordNotFound（业务层视为“还不是关系”）。
	TakeRelation(ctx context.Context, ownerUserID, targetUserID string) (*relationmodel.Relation, error)
	ListRelations(ctx context.Context, ownerUserID, pageToken string, pageSize int) (*RelationPage, error)
	ListFriendIDs(ctx context.Context, ownerUserID string) ([]string, error)
	// ApplyRelation 原子执行实体写 + 日志追加，返回事务内分配的版本号。
	ApplyRelation(ctx context.Context, mut *RelationMutation) (version string, err error)
	RelationChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*RelationChangeSet, error)
	LatestRelationVersion(ctx context.Context, ownerUserID string) (string, error)
}

type ConversationStore interface {
	TakeConversation(ctx context.Context, ownerUserID, conversationID string) (*convmodel.Conversation, error)
	ListConversations(ctx context.Context, ownerUserID, pageToken string, pageSize int) (*ConversationPage, error)
	ApplyConversation(ctx context.Context, mut *ConversationMutation) (version string, err error)
	// MarkRead 单调推进已读光标；光标未前进时不追加记录，version 返回空串。
	MarkRead(ctx context.Context, ownerUserID, conversationID string, upToMsgID int64) (readMsgID int64, version string, err error)
	AppendMessage(ctx context.Context, msg *convmodel.Message) error
	// UnreadCount 读取时推导未读数：msg_id > lastReadMsgID 且发送者不是 owner 的消息数。
	UnreadCount(ctx context.Context, ownerUserID, conversationID string, lastReadMsgID int64) (int64, error)
	ConversationChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*ConversationChangeSet, error)
	LatestConversationVersion(ctx context.Context, ownerUserID string) (string, error)
}

type GroupStore interface {
	TakeUserGroup(ctx context.Context, ownerUserID, groupID string) (*groupmodel.UserGroup, error)
	ListUserGroups(ctx context.Context, ownerUserID, pageToken string, pageSize int) (*UserGroupPage, error)
	ApplyUserGroup(ctx context.Context, mut *GroupMutation) (version string, err error)
	GroupChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*GroupChangeSet, error)
	LatestGroupVersion(ctx context.Context, ownerUserID string) (string, error)
}

// Store 是两个后端共同实现的完整门面。
type Store interface {
	RelationStore
	ConversationStore
	GroupStore
}
