package group

import (
	"context"
	"os"
	"testing"

	"ChatSync/data/store"
	"ChatSync/data/store/storetest"
	"ChatSync/logger"
	"ChatSync/module/group/model"
	errs "ChatSync/tools/errs"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Replace(zap.NewNop())
	os.Exit(m.Run())
}

func TestJoinGroup(t *testing.T) {
	var gotMut *store.GroupMutation
	fake := &storetest.Fake{
		ApplyUserGroupFn: func(_ context.Context, mut *store.GroupMutation) (string, error) {
			gotMut = mut
			return "v1", nil
		},
	}
	svc := NewService(fake, nil, nil)

	err := svc.JoinGroup(context.Background(), &JoinGroupReq{
		OwnerUserID: "alice",
		GroupID:     "g1",
		GroupName:   "产品群",
		MemberNick:  "小A",
	})
	require.NoError(t, err)
	require.Equal(t, store.ActionUpsert, gotMut.Action)
	require.Equal(t, model.GroupChangeJoin, gotMut.Change.Kind)
	require.Equal(t, "产品群", gotMut.Row.GroupName)
	require.Equal(t, "小A", gotMut.Change.Payload[model.GroupPayloadKeyMemberNick])
}

func TestJoinGroupDuplicate(t *testing.T) {
	fake := &storetest.Fake{
		TakeUserGroupFn: func(_ context.Context, owner, groupID string) (*model.UserGroup, error) {
			return &model.UserGroup{OwnerUserID: owner, GroupID: groupID}, nil
		},
	}
	svc := NewService(fake, nil, nil)
	err := svc.JoinGroup(context.Background(), &JoinGroupReq{OwnerUserID: "alice", GroupID: "g1"})
	require.True(t, errs.ErrGroupMemberDuplicate.Is(err))
	require.True(t, errs.ErrDuplicateKey.Is(err)) // 归属通用父码
}

func TestQuitGroupNotMember(t *testing.T) {
	svc := NewService(&storetest.Fake{}, nil, nil)
	err := svc.QuitGroup(context.Background(), "alice", "g1")
	require.True(t, errs.ErrGroupMemberNotFound.Is(err))
}

func TestQuitGroupDeletesRow(t *testing.T) {
	var gotMut *store.GroupMutation
	fake := &storetest.Fake{
		TakeUserGroupFn: func(_ context.Context, owner, groupID string) (*model.UserGroup, error) {
			return &model.UserGroup{OwnerUserID: owner, GroupID: groupID}, nil
		},
		ApplyUserGroupFn: func(_ context.Context, mut *store.GroupMutation) (string, error) {
			gotMut = mut
			return "v2", nil
		},
	}
	svc := NewService(fake, nil, nil)
	require.NoError(t, svc.QuitGroup(context.Background(), "alice", "g1"))
	require.Equal(t, store.ActionDelete, gotMut.Action)
	require.Nil(t, gotMut.Row)
	require.Equal(t, model.GroupChangeQuit, gotMut.Change.Kind)
}

func TestUpdateGroupMemberNickname(t *testing.T) {
	var gotMut *store.GroupMutation
	fake := &storetest.Fake{
		TakeUserGroupFn: func(_ context.Context, owner, groupID string) (*model.UserGroup, error) {
			return &model.UserGroup{
				OwnerUserID: owner, GroupID: groupID,
				GroupName: "产品群", MemberNick: "旧昵称",
			}, nil
		},
		ApplyUserGroupFn: func(_ context.Context, mut *store.GroupMutation) (string, error) {
			gotMut = mut
			return "v3", nil
		},
	}
	svc := NewService(fake, nil, nil)
	require.NoError(t, svc.UpdateGroupMemberNickname(context.Background(), "alice", "g1", "新昵称"))
	require.Equal(t, "新昵称", gotMut.Row.MemberNick)
	// 其余快照字段不动
	require.Equal(t, "产品群", gotMut.Row.GroupName)
	require.Equal(t, model.GroupChangeMemberInfo, gotMut.Change.Kind)
}

func TestGetGroupChangesValidation(t *testing.T) {
	svc := NewService(&storetest.Fake{}, nil, nil)
	_, err := svc.GetGroupChanges(context.Background(), "", "v1", 10)
	require.True(t, errs.ErrArgs.Is(err))
}
