package relation

import (
	"context"
	"os"
	"testing"

	"ChatSync/data/store"
	"ChatSync/data/store/storetest"
	"ChatSync/logger"
	convmodel "ChatSync/module/conversation/model"
	"ChatSync/module/relation/model"
	"ChatSync/service/notify"
	errs "ChatSync/tools/errs"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Replace(zap.NewNop())
	os.Exit(m.Run())
}

type fakeProfiles struct {
	fn func(ctx context.Context, userID string) (*model.UserProfile, error)
}

func (f fakeProfiles) TakeProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	if f.fn != nil {
		return f.fn(ctx, userID)
	}
	return &model.UserProfile{UserID: userID, Nickname: "nick_" + userID, FaceURL: "face_" + userID}, nil
}

type fakeNotifier struct {
	events []*notify.Event
	err    error
}

func (f *fakeNotifier) Publish(_ context.Context, ev *notify.Event) error {
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakeNotifier) Close() error { return nil }

func TestAddFriendNewRelation(t *testing.T) {
	var gotMut *store.RelationMutation
	fake := &storetest.Fake{
		ApplyRelationFn: func(_ context.Context, mut *store.RelationMutation) (string, error) {
			gotMut = mut
			return "00000000000000000001", nil
		},
	}
	notifier := &fakeNotifier{}
	svc := NewService(fake, fakeProfiles{}, notifier)

	err := svc.AddFriend(context.Background(), "alice", "bob")
	require.NoError(t, err)
	require.NotNil(t, gotMut)
	require.Equal(t, store.ActionUpsert, gotMut.Action)
	require.Equal(t, model.FlagFriend, gotMut.Row.Flags)
	require.Equal(t, "nick_bob", gotMut.Row.Nickname)
	require.Equal(t, model.RelationChangeAddFriend, gotMut.Change.Kind)
	require.Equal(t, "nick_bob", gotMut.Change.Payload[model.PayloadKeyNickname])

	require.Len(t, notifier.events, 1)
	require.Equal(t, notify.DomainRelation, notifier.events[0].Domain)
	require.Equal(t, "alice", notifier.events[0].OwnerUserID)
	require.Equal(t, "00000000000000000001", notifier.events[0].Version)
}

func TestAddFriendSelf(t *testing.T) {
	svc := NewService(&storetest.Fake{}, fakeProfiles{}, nil)
	err := svc.AddFriend(context.Background(), "alice", "alice")
	require.True(t, errs.ErrArgs.Is(err))
}

func TestAddFriendAlreadyFriend(t *testing.T) {
	applied := false
	fake := &storetest.Fake{
		TakeRelationFn: func(_ context.Context, owner, target string) (*model.Relation, error) {
			return &model.Relation{OwnerUserID: owner, TargetUserID: target, Flags: model.FlagFriend}, nil
		},
		ApplyRelationFn: func(_ context.Context, _ *store.RelationMutation) (string, error) {
			applied = true
			return "", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)
	err := svc.AddFriend(context.Background(), "alice", "bob")
	require.True(t, errs.ErrDuplicateKey.Is(err))
	require.False(t, applied)
}

func TestAddFriendResetsBlockedRow(t *testing.T) {
	var gotMut *store.RelationMutation
	fake := &storetest.Fake{
		TakeRelationFn: func(_ context.Context, owner, target string) (*model.Relation, error) {
			return &model.Relation{
				OwnerUserID: owner, TargetUserID: target,
				Remark: "老王",
				Flags:  model.FlagBlocked | model.FlagHidden,
			}, nil
		},
		ApplyRelationFn: func(_ context.Context, mut *store.RelationMutation) (string, error) {
			gotMut = mut
			return "v", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)
	require.NoError(t, svc.AddFriend(context.Background(), "alice", "bob"))
	require.Equal(t, model.FlagFriend, gotMut.Row.Flags)
	// 重置位集但保留用户自定义备注
	require.Equal(t, "老王", gotMut.Row.Remark)
}

func TestAddFriendUnknownUser(t *testing.T) {
	profiles := fakeProfiles{
		fn: func(_ context.Context, userID string) (*model.UserProfile, error) {
			return nil, errs.ErrRecordNotFound.WrapMsg("no such user", "user", userID)
		},
	}
	svc := NewService(&storetest.Fake{}, profiles, nil)
	err := svc.AddFriend(context.Background(), "alice", "ghost")
	require.True(t, errs.ErrRecordNotFound.Is(err))
}

func TestBlockStrangerWithExistingRelation(t *testing.T) {
	fake := &storetest.Fake{
		TakeRelationFn: func(_ context.Context, owner, target string) (*model.Relation, error) {
			return &model.Relation{OwnerUserID: owner, TargetUserID: target, Flags: model.FlagFriend}, nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)
	err := svc.BlockStranger(context.Background(), "alice", "bob")
	require.True(t, errs.ErrStrangerHasRelationship.Is(err))
}

func TestRemoveFriendKeepsBlockedBit(t *testing.T) {
	var gotMut *store.RelationMutation
	fake := &storetest.Fake{
		TakeRelationFn: func(_ context.Context, owner, target string) (*model.Relation, error) {
			return &model.Relation{
				OwnerUserID: owner, TargetUserID: target,
				Flags: model.FlagFriend | model.FlagBlocked,
			}, nil
		},
		ApplyRelationFn: func(_ context.Context, mut *store.RelationMutation) (string, error) {
			gotMut = mut
			return "v", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)
	require.NoError(t, svc.RemoveFriend(context.Background(), "alice", "bob"))
	require.Equal(t, store.ActionUpsert, gotMut.Action)
	require.Equal(t, model.FlagBlocked, gotMut.Row.Flags)
	require.Equal(t, model.RelationChangeRemoveFriend, gotMut.Change.Kind)
}

func TestRemoveFriendDeletesRowWhenFlagsClear(t *testing.T) {
	var gotMut *store.RelationMutation
	fake := &storetest.Fake{
		TakeRelationFn: func(_ context.Context, owner, target string) (*model.Relation, error) {
			return &model.Relation{OwnerUserID: owner, TargetUserID: target, Flags: model.FlagFriend}, nil
		},
		ApplyRelationFn: func(_ context.Context, mut *store.RelationMutation) (string, error) {
			gotMut = mut
			return "v", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)
	require.NoError(t, svc.RemoveFriend(context.Background(), "alice", "bob"))
	require.Equal(t, store.ActionDelete, gotMut.Action)
	require.Nil(t, gotMut.Row)
	require.Equal(t, model.Flags(0), gotMut.Change.Flags)
}

func TestBlockHideUnblockChainDeletesRow(t *testing.T) {
	// 加好友 → 拉黑 → 隐藏 → 取消拉黑，逐步跟踪同一行的位集演化
	var row *model.Relation
	fake := &storetest.Fake{
		TakeRelationFn: func(_ context.Context, owner, target string) (*model.Relation, error) {
			if row == nil {
				return nil, errs.ErrRecordNotFound.WrapMsg("no relation")
			}
			r := *row
			return &r, nil
		},
		ApplyRelationFn: func(_ context.Context, mut *store.RelationMutation) (string, error) {
			if mut.Action == store.ActionDelete {
				row = nil
			} else {
				r := *mut.Row
				row = &r
			}
			return "v", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)
	ctx := context.Background()

	require.NoError(t, svc.AddFriend(ctx, "alice", "bob"))
	require.Equal(t, model.FlagFriend, row.Flags)

	require.NoError(t, svc.BlockFriend(ctx, "alice", "bob"))
	require.Equal(t, model.FlagFriend|model.FlagBlocked, row.Flags)

	// 隐藏蕴含非好友：好友位被清掉
	require.NoError(t, svc.HideBlockedUser(ctx, "alice", "bob"))
	require.Equal(t, model.FlagBlocked|model.FlagHidden, row.Flags)

	// 取消拉黑后不剩好友位，行被删除
	require.NoError(t, svc.UnblockUser(ctx, "alice", "bob"))
	require.Nil(t, row)
}

func TestBlockFriendOnBlockedStranger(t *testing.T) {
	applied := false
	fake := &storetest.Fake{
		TakeRelationFn: func(_ context.Context, owner, target string) (*model.Relation, error) {
			return &model.Relation{OwnerUserID: owner, TargetUserID: target, Flags: model.FlagBlocked}, nil
		},
		ApplyRelationFn: func(_ context.Context, _ *store.RelationMutation) (string, error) {
			applied = true
			return "", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)
	err := svc.BlockFriend(context.Background(), "alice", "bob")
	require.True(t, errs.ErrDuplicateKey.Is(err))
	require.False(t, applied)
}

func TestUpdateRemarkPropagatesToConversation(t *testing.T) {
	var gotConvMut *store.ConversationMutation
	fake := &storetest.Fake{
		TakeRelationFn: func(_ context.Context, owner, target string) (*model.Relation, error) {
			return &model.Relation{
				OwnerUserID: owner, TargetUserID: target,
				Nickname: "bob_nick", Flags: model.FlagFriend,
			}, nil
		},
		ApplyRelationFn: func(_ context.Context, _ *store.RelationMutation) (string, error) {
			return "v1", nil
		},
		TakeConversationFn: func(_ context.Context, owner, convID string) (*convmodel.Conversation, error) {
			return &convmodel.Conversation{
				OwnerUserID:      owner,
				ConversationID:   convID,
				ConversationType: convmodel.ConversationTypeP2P,
				UserID:           "bob",
				ShowName:         "bob_nick",
			}, nil
		},
		ApplyConversationFn: func(_ context.Context, mut *store.ConversationMutation) (string, error) {
			gotConvMut = mut
			return "cv1", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)
	require.NoError(t, svc.UpdateFriendRemark(context.Background(), "alice", "bob", "老铁"))
	require.NotNil(t, gotConvMut)
	// 备注覆盖昵称成为会话展示名
	require.Equal(t, "老铁", gotConvMut.Row.ShowName)
	require.Equal(t, convmodel.ConversationChangeInfoUpdated, gotConvMut.Change.Kind)
}

func TestUpdateRemarkNoRelation(t *testing.T) {
	svc := NewService(&storetest.Fake{}, fakeProfiles{}, nil)
	err := svc.UpdateFriendRemark(context.Background(), "alice", "bob", "x")
	require.True(t, errs.ErrRecordNotFound.Is(err))
}

func TestNotifyFailureDoesNotFailOperation(t *testing.T) {
	notifier := &fakeNotifier{err: errs.New("broker down")}
	svc := NewService(&storetest.Fake{}, fakeProfiles{}, notifier)
	require.NoError(t, svc.AddFriend(context.Background(), "alice", "bob"))
}

func TestGetRelationChangesDelegates(t *testing.T) {
	fake := &storetest.Fake{
		RelationChangesFn: func(_ context.Context, owner, afterVersion string, limit int) (*store.RelationChangeSet, error) {
			require.Equal(t, "alice", owner)
			require.Equal(t, "v7", afterVersion)
			require.Equal(t, 50, limit)
			return &store.RelationChangeSet{Version: "v9"}, nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)
	set, err := svc.GetRelationChanges(context.Background(), "alice", "v7", 50)
	require.NoError(t, err)
	require.Equal(t, "v9", set.Version)

	_, err = svc.GetRelationChanges(context.Background(), "", "v7", 50)
	require.True(t, errs.ErrArgs.Is(err))
}
