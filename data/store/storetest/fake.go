package storetest

import (
	"context"

	"ChatSync/data/store"
	convmodel "ChatSync/module/conversation/model"
	groupmodel "ChatSync/module/group/model"
	relationmodel "ChatSync/module/relation/model"
	errs "ChatSync/tools/errs"
)

// Fake 以函数字段打桩 store.Store，服务层测试按用例只挂需要的方法。
// 未挂的方法给安全缺省值：点查未命中、列表为空、写入返回固定版本号。
type Fake struct {
	TakeRelationFn          func(ctx context.Context, owner, target string) (*relationmodel.Relation, error)
	ListRelationsFn         func(ctx context.Context, owner, pageToken string, pageSize int) (*store.RelationPage, error)
	ListFriendIDsFn         func(ctx context.Context, owner string) ([]string, error)
	ApplyRelationFn         func(ctx context.Context, mut *store.RelationMutation) (string, error)
	RelationChangesFn       func(ctx context.Context, owner, afterVersion string, limit int) (*store.RelationChangeSet, error)
	LatestRelationVersionFn func(ctx context.Context, owner string) (string, error)

	TakeConversationFn          func(ctx context.Context, owner, convID string) (*convmodel.Conversation, error)
	ListConversationsFn         func(ctx context.Context, owner, pageToken string, pageSize int) (*store.ConversationPage, error)
	ApplyConversationFn         func(ctx context.Context, mut *store.ConversationMutation) (string, error)
	MarkReadFn                  func(ctx context.Context, owner, convID string, upToMsgID int64) (int64, string, error)
	AppendMessageFn             func(ctx context.Context, msg *convmodel.Message) error
	UnreadCountFn               func(ctx context.Context, owner, convID string, lastReadMsgID int64) (int64, error)
	ConversationChangesFn       func(ctx context.Context, owner, afterVersion string, limit int) (*store.ConversationChangeSet, error)
	LatestConversationVersionFn func(ctx context.Context, owner string) (string, error)

	TakeUserGroupFn      func(ctx context.Context, owner, groupID string) (*groupmodel.UserGroup, error)
	ListUserGroupsFn     func(ctx context.Context, owner, pageToken string, pageSize int) (*store.UserGroupPage, error)
	ApplyUserGroupFn     func(ctx context.Context, mut *store.GroupMutation) (string, error)
	GroupChangesFn       func(ctx context.Context, owner, afterVersion string, limit int) (*store.GroupChangeSet, error)
	LatestGroupVersionFn func(ctx context.Context, owner string) (string, error)
}

var _ store.Store = (*Fake)(nil)

func (f *Fake) TakeRelation(ctx context.Context, owner, target string) (*relationmodel.Relation, error) {
	if f.TakeRelationFn != nil {
		return f.TakeRelationFn(ctx, owner, target)
	}
	return nil, errs.ErrRecordNotFound.Wrap()
}

func (f *Fake) ListRelations(ctx context.Context, owner, pageToken string, pageSize int) (*store.RelationPage, error) {
	if f.ListRelationsFn != nil {
		return f.ListRelationsFn(ctx, owner, pageToken, pageSize)
	}
	return &store.RelationPage{}, nil
}

func (f *Fake) ListFriendIDs(ctx context.Context, owner string) ([]string, error) {
	if f.ListFriendIDsFn != nil {
		return f.ListFriendIDsFn(ctx, owner)
	}
	return nil, nil
}

func (f *Fake) ApplyRelation(ctx context.Context, mut *store.RelationMutation) (string, error) {
	if f.ApplyRelationFn != nil {
		return f.ApplyRelationFn(ctx, mut)
	}
	return "00000000000000000001", nil
}

func (f *Fake) RelationChanges(ctx context.Context, owner, afterVersion string, limit int) (*store.RelationChangeSet, error) {
	if f.RelationChangesFn != nil {
		return f.RelationChangesFn(ctx, owner, afterVersion, limit)
	}
	if afterVersion == "" {
		return &store.RelationChangeSet{FullSync: true}, nil
	}
	return &store.RelationChangeSet{Version: afterVersion}, nil
}

func (f *Fake) LatestRelationVersion(ctx context.Context, owner string) (string, error) {
	if f.LatestRelationVersionFn != nil {
		return f.LatestRelationVersionFn(ctx, owner)
	}
	return "", nil
}

func (f *Fake) TakeConversation(ctx context.Context, owner, convID string) (*convmodel.Conversation, error) {
	if f.TakeConversationFn != nil {
		return f.TakeConversationFn(ctx, owner, convID)
	}
	return nil, errs.ErrRecordNotFound.Wrap()
}

func (f *Fake) ListConversations(ctx context.Context, owner, pageToken string, pageSize int) (*store.ConversationPage, error) {
	if f.ListConversationsFn != nil {
		return f.ListConversationsFn(ctx, owner, pageToken, pageSize)
	}
	return &store.ConversationPage{}, nil
}

func (f *Fake) ApplyConversation(ctx context.Context, mut *store.ConversationMutation) (string, error) {
	if f.ApplyConversationFn != nil {
		return f.ApplyConversationFn(ctx, mut)
	}
	return "00000000000000000001", nil
}

func (f *Fake) MarkRead(ctx context.Context, owner, convID string, upToMsgID int64) (int64, string, error) {
	if f.MarkReadFn != nil {
		return f.MarkReadFn(ctx, owner, convID, upToMsgID)
	}
	return upToMsgID, "00000000000000000001", nil
}

func (f *Fake) AppendMessage(ctx context.Context, msg *convmodel.Message) error {
	if f.AppendMessageFn != nil {
		return f.AppendMessageFn(ctx, msg)
	}
	return nil
}

func (f *Fake) UnreadCount(ctx context.Context, owner, convID string, lastReadMsgID int64) (int64, error) {
	if f.UnreadCountFn != nil {
		return f.UnreadCountFn(ctx, owner, convID, lastReadMsgID)
	}
	return 0, nil
}

func (f *Fake) ConversationChanges(ctx context.Context, owner, afterVersion string, limit int) (*store.ConversationChangeSet, error) {
	if f.ConversationChangesFn != nil {
		return f.ConversationChangesFn(ctx, owner, afterVersion, limit)
	}
	if afterVersion == "" {
		return &store.ConversationChangeSet{FullSync: true}, nil
	}
	return &store.ConversationChangeSet{Version: afterVersion}, nil
}

func (f *Fake) LatestConversationVersion(ctx context.Context, owner string) (string, error) {
	if f.LatestConversationVersionFn != nil {
		return f.LatestConversationVersionFn(ctx, owner)
	}
	return "", nil
}

func (f *Fake) TakeUserGroup(ctx context.Context, owner, groupID string) (*groupmodel.UserGroup, error) {
	if f.TakeUserGroupFn != nil {
		return f.TakeUserGroupFn(ctx, owner, groupID)
	}
	return nil, errs.ErrRecordNotFound.Wrap()
}

func (f *Fake) ListUserGroups(ctx context.Context, owner, pageToken string, pageSize int) (*store.UserGroupPage, error) {
	if f.ListUserGroupsFn != nil {
		return f.ListUserGroupsFn(ctx, owner, pageToken, pageSize)
	}
	return &store.UserGroupPage{}, nil
}

func (f *Fake) ApplyUserGroup(ctx context.Context, mut *store.GroupMutation) (string, error) {
	if f.ApplyUserGroupFn != nil {
		return f.ApplyUserGroupFn(ctx, mut)
	}
	return "00000000000000000001", nil
}

func (f *Fake) GroupChanges(ctx context.Context, owner, afterVersion string, limit int) (*store.GroupChangeSet, error) {
	if f.GroupChangesFn != nil {
		return f.GroupChangesFn(ctx, owner, afterVersion, limit)
	}
	if afterVersion == "" {
		return &store.GroupChangeSet{FullSync: true}, nil
	}
	return &store.GroupChangeSet{Version: afterVersion}, nil
}

func (f *Fake) LatestGroupVersion(ctx context.Context, owner string) (string, error) {
	if f.LatestGroupVersionFn != nil {
		return f.LatestGroupVersionFn(ctx, owner)
	}
	return "", nil
}
