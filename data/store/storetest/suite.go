package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ChatSync/data/store"
	convmodel "ChatSync/module/conversation/model"
	groupmodel "ChatSync/module/group/model"
	relationmodel "ChatSync/module/relation/model"
	errs "ChatSync/tools/errs"

	"github.com/stretchr/testify/require"
)

// RunStoreSuite 两个后端共用的契约测试：同一套断言跑在 mongostore 和
// cqlstore 上，保证版本号编码差异不泄漏到调用方可见的行为里。
func RunStoreSuite(t *testing.T, st store.Store) {
	t.Run("RelationLifecycle", func(t *testing.T) { testRelationLifecycle(t, st) })
	t.Run("RelationFlagChain", func(t *testing.T) { testRelationFlagChain(t, st) })
	t.Run("RelationChangeFeed", func(t *testing.T) { testRelationChangeFeed(t, st) })
	t.Run("RelationPagination", func(t *testing.T) { testRelationPagination(t, st) })
	t.Run("ConversationMarkRead", func(t *testing.T) { testConversationMarkRead(t, st) })
	t.Run("UnreadCount", func(t *testing.T) { testUnreadCount(t, st) })
	t.Run("GroupLifecycle", func(t *testing.T) { testGroupLifecycle(t, st) })
}

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func relMutation(owner, target string, flags relationmodel.Flags, action store.Action) *store.RelationMutation {
	mut := &store.RelationMutation{
		OwnerUserID:  owner,
		TargetUserID: target,
		Action:       action,
		Change: &relationmodel.RelationChange{
			OwnerUserID:  owner,
			TargetUserID: target,
			Kind:         relationmodel.RelationChangeAddFriend,
			Flags:        flags,
		},
	}
	if action == store.ActionUpsert {
		mut.Row = &relationmodel.Relation{
			OwnerUserID:  owner,
			TargetUserID: target,
			Nickname:     "nick_" + target,
			Flags:        flags,
		}
	}
	return mut
}

func testRelationLifecycle(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := uniqueID("owner")
	target := uniqueID("target")

	_, err := st.TakeRelation(ctx, owner, target)
	require.True(t, errs.ErrRecordNotFound.Is(err))

	ver, err := st.ApplyRelation(ctx, relMutation(owner, target, relationmodel.FlagFriend, store.ActionUpsert))
	require.NoError(t, err)
	require.NotEmpty(t, ver)

	rel, err := st.TakeRelation(ctx, owner, target)
	require.NoError(t, err)
	require.True(t, rel.Flags.IsFriend())
	require.Equal(t, "nick_"+target, rel.Nickname)

	// 位清零即删行
	_, err = st.ApplyRelation(ctx, relMutation(owner, target, 0, store.ActionDelete))
	require.NoError(t, err)
	_, err = st.TakeRelation(ctx, owner, target)
	require.True(t, errs.ErrRecordNotFound.Is(err))
}

// testRelationFlagChain 走完整的位集演化链：
// 好友(001) → 拉黑(011) → 隐藏清好友位(110) → 取消拉黑删行。
func testRelationFlagChain(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := uniqueID("owner")
	target := uniqueID("target")

	steps := []struct {
		flags  relationmodel.Flags
		kind   relationmodel.RelationChangeKind
		action store.Action
	}{
		{relationmodel.FlagFriend, relationmodel.RelationChangeAddFriend, store.ActionUpsert},
		{relationmodel.FlagFriend | relationmodel.FlagBlocked, relationmodel.RelationChangeBlockFriend, store.ActionUpsert},
		{relationmodel.FlagBlocked | relationmodel.FlagHidden, relationmodel.RelationChangeHide, store.ActionUpsert},
		{0, relationmodel.RelationChangeUnblock, store.ActionDelete},
	}
	versions := make([]string, 0, len(steps))
	for _, s := range steps {
		mut := relMutation(owner, target, s.flags, s.action)
		mut.Change.Kind = s.kind
		ver, err := st.ApplyRelation(ctx, mut)
		require.NoError(t, err)
		versions = append(versions, ver)

		if s.action == store.ActionDelete {
			_, err = st.TakeRelation(ctx, owner, target)
			require.True(t, errs.ErrRecordNotFound.Is(err))
			continue
		}
		rel, err := st.TakeRelation(ctx, owner, target)
		require.NoError(t, err)
		require.Equal(t, s.flags, rel.Flags)
	}

	// 变更日志按产生序完整回放这条链，包括最后的删行记录
	set, err := st.RelationChanges(ctx, owner, versions[0], 100)
	require.NoError(t, err)
	require.Len(t, set.Changes, len(steps)-1)
	for i, ch := range set.Changes {
		require.Equal(t, versions[i+1], ch.Version)
		require.Equal(t, steps[i+1].kind, ch.Kind)
		require.Equal(t, steps[i+1].flags, ch.Flags)
	}
	require.Equal(t, versions[len(versions)-1], set.Version)
}

func testRelationChangeFeed(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := uniqueID("owner")

	// 空 afterVersion：全量同步信号，不是“从头拉”
	set, err := st.RelationChanges(ctx, owner, "", 10)
	require.NoError(t, err)
	require.True(t, set.FullSync)
	require.Empty(t, set.Changes)

	// 非法版本号必须报错，绝不能当成“从头开始”
	_, err = st.RelationChanges(ctx, owner, "not-a-version", 10)
	require.True(t, errs.ErrInvalidVersion.Is(err))

	latest, err := st.LatestRelationVersion(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, latest)

	const n = 5
	versions := make([]string, 0, n)
	for i := 0; i < n; i++ {
		target := fmt.Sprintf("%s_t%d", owner, i)
		ver, err := st.ApplyRelation(ctx, relMutation(owner, target, relationmodel.FlagFriend, store.ActionUpsert))
		require.NoError(t, err)
		versions = append(versions, ver)
	}

	latest, err = st.LatestRelationVersion(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, versions[n-1], latest)

	// 从第 2 条之后拉：回放顺序与产生顺序一致
	set, err = st.RelationChanges(ctx, owner, versions[1], 100)
	require.NoError(t, err)
	require.False(t, set.FullSync)
	require.Len(t, set.Changes, 3)
	for i, ch := range set.Changes {
		require.Equal(t, versions[2+i], ch.Version)
	}
	require.Equal(t, versions[n-1], set.Version)

	// limit 截断
	set, err = st.RelationChanges(ctx, owner, versions[1], 2)
	require.NoError(t, err)
	require.Len(t, set.Changes, 2)
	require.Equal(t, versions[3], set.Version)

	// 日志不变时重复调用结果一致
	again, err := st.RelationChanges(ctx, owner, versions[1], 2)
	require.NoError(t, err)
	require.Equal(t, set, again)

	// 追平之后拉到空集，回传入参版本
	set, err = st.RelationChanges(ctx, owner, versions[n-1], 10)
	require.NoError(t, err)
	require.Empty(t, set.Changes)
	require.Equal(t, versions[n-1], set.Version)
}

func testRelationPagination(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := uniqueID("owner")

	const total = 7
	want := make(map[string]struct{}, total)
	for i := 0; i < total; i++ {
		target := fmt.Sprintf("%s_p%d", owner, i)
		want[target] = struct{}{}
		_, err := st.ApplyRelation(ctx, relMutation(owner, target, relationmodel.FlagFriend, store.ActionUpsert))
		require.NoError(t, err)
	}

	got := make(map[string]struct{}, total)
	token := ""
	pages := 0
	for {
		page, err := st.ListRelations(ctx, owner, token, 3)
		require.NoError(t, err)
		for _, rel := range page.Relations {
			_, dup := got[rel.TargetUserID]
			require.False(t, dup, "duplicate row across pages: %s", rel.TargetUserID)
			got[rel.TargetUserID] = struct{}{}
		}
		pages++
		if !page.HasMore {
			require.Empty(t, page.NextPageToken)
			break
		}
		require.NotEmpty(t, page.NextPageToken)
		token = page.NextPageToken
	}
	require.Equal(t, 3, pages)
	require.Equal(t, want, got)

	_, err := st.ListRelations(ctx, owner, "%%%bad-token%%%", 3)
	require.True(t, errs.ErrInvalidPageToken.Is(err))
}

func convMutation(owner, convID string) *store.ConversationMutation {
	return &store.ConversationMutation{
		OwnerUserID:    owner,
		ConversationID: convID,
		Action:         store.ActionUpsert,
		Row: &convmodel.Conversation{
			OwnerUserID:      owner,
			ConversationID:   convID,
			ConversationType: convmodel.ConversationTypeP2P,
			ShowName:         "peer",
		},
		Change: &convmodel.ConversationChange{
			OwnerUserID:    owner,
			ConversationID: convID,
			Kind:           convmodel.ConversationChangeCreated,
		},
	}
}

func testConversationMarkRead(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := uniqueID("owner")
	convID := uniqueID("conv")

	_, _, err := st.MarkRead(ctx, owner, convID, 10)
	require.True(t, errs.ErrRecordNotFound.Is(err))

	_, err = st.ApplyConversation(ctx, convMutation(owner, convID))
	require.NoError(t, err)

	read, ver, err := st.MarkRead(ctx, owner, convID, 10)
	require.NoError(t, err)
	require.Equal(t, int64(10), read)
	require.NotEmpty(t, ver)

	// 光标只进不退：回退请求是空操作，不产生版本
	read, ver, err = st.MarkRead(ctx, owner, convID, 5)
	require.NoError(t, err)
	require.Equal(t, int64(10), read)
	require.Empty(t, ver)

	read, ver, err = st.MarkRead(ctx, owner, convID, 10)
	require.NoError(t, err)
	require.Equal(t, int64(10), read)
	require.Empty(t, ver)

	conv, err := st.TakeConversation(ctx, owner, convID)
	require.NoError(t, err)
	require.Equal(t, int64(10), conv.LastReadMsgID)
}

func testUnreadCount(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := uniqueID("owner")
	peer := uniqueID("peer")
	convID := uniqueID("conv")

	sends := []struct {
		msgID  int64
		sendID string
	}{
		{1, peer}, {2, peer}, {3, owner}, {4, peer},
	}
	for _, m := range sends {
		err := st.AppendMessage(ctx, &convmodel.Message{
			ConversationID: convID,
			MsgID:          m.msgID,
			SendID:         m.sendID,
			ContentType:    1,
			Content:        "hello",
			SendTime:       time.Now().UnixMilli(),
		})
		require.NoError(t, err)
	}

	// lastRead=1：新消息 2,3,4，其中 3 是自己发的，不计未读
	unread, err := st.UnreadCount(ctx, owner, convID, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), unread)

	unread, err = st.UnreadCount(ctx, owner, convID, 4)
	require.NoError(t, err)
	require.Equal(t, int64(0), unread)
}

func testGroupLifecycle(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := uniqueID("owner")
	groupID := uniqueID("grp")

	_, err := st.TakeUserGroup(ctx, owner, groupID)
	require.True(t, errs.ErrRecordNotFound.Is(err))

	ver, err := st.ApplyUserGroup(ctx, &store.GroupMutation{
		OwnerUserID: owner,
		GroupID:     groupID,
		Action:      store.ActionUpsert,
		Row: &groupmodel.UserGroup{
			OwnerUserID: owner,
			GroupID:     groupID,
			GroupName:   "dev team",
		},
		Change: &groupmodel.GroupChange{
			OwnerUserID: owner,
			GroupID:     groupID,
			Kind:        groupmodel.GroupChangeJoin,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, ver)

	ug, err := st.TakeUserGroup(ctx, owner, groupID)
	require.NoError(t, err)
	require.Equal(t, "dev team", ug.GroupName)

	latest, err := st.LatestGroupVersion(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, ver, latest)

	_, err = st.ApplyUserGroup(ctx, &store.GroupMutation{
		OwnerUserID: owner,
		GroupID:     groupID,
		Action:      store.ActionDelete,
		Change: &groupmodel.GroupChange{
			OwnerUserID: owner,
			GroupID:     groupID,
			Kind:        groupmodel.GroupChangeQuit,
		},
	})
	require.NoError(t, err)
	_, err = st.TakeUserGroup(ctx, owner, groupID)
	require.True(t, errs.ErrRecordNotFound.Is(err))
}
