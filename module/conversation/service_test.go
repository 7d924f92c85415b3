package conversation

import (
	"context"
	"os"
	"strings"
	"testing"

	"ChatSync/data/store"
	"ChatSync/data/store/storetest"
	"ChatSync/logger"
	"ChatSync/module/conversation/model"
	relationmodel "ChatSync/module/relation/model"
	errs "ChatSync/tools/errs"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Replace(zap.NewNop())
	os.Exit(m.Run())
}

type fakeProfiles struct {
	fn func(ctx context.Context, userID string) (*relationmodel.UserProfile, error)
}

func (f fakeProfiles) TakeProfile(ctx context.Context, userID string) (*relationmodel.UserProfile, error) {
	if f.fn != nil {
		return f.fn(ctx, userID)
	}
	return &relationmodel.UserProfile{UserID: userID, Nickname: "nick_" + userID}, nil
}

func TestSendMessageProjectsBothSides(t *testing.T) {
	var (
		gotMsg  *model.Message
		applied []*store.ConversationMutation
	)
	fake := &storetest.Fake{
		AppendMessageFn: func(_ context.Context, msg *model.Message) error {
			gotMsg = msg
			return nil
		},
		ApplyConversationFn: func(_ context.Context, mut *store.ConversationMutation) (string, error) {
			applied = append(applied, mut)
			return "v", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)

	msg, err := svc.SendMessage(context.Background(), "alice", "bob", 1, "hello bob")
	require.NoError(t, err)
	require.Equal(t, "p2p:alice:bob", msg.ConversationID)
	require.NotZero(t, msg.MsgID)
	require.Equal(t, gotMsg, msg)

	// 双方各物化一行，首次物化是 Created
	require.Len(t, applied, 2)
	owners := map[string]*store.ConversationMutation{}
	for _, mut := range applied {
		owners[mut.OwnerUserID] = mut
		require.Equal(t, "p2p:alice:bob", mut.ConversationID)
		require.Equal(t, model.ConversationChangeCreated, mut.Change.Kind)
		require.Equal(t, int64(msg.MsgID), mut.Row.LastMsgID)
		require.Equal(t, "hello bob", mut.Row.LastMsgText)
	}
	require.Contains(t, owners, "alice")
	require.Contains(t, owners, "bob")
	// 发送方视角的对端是接收方，反之亦然
	require.Equal(t, "bob", owners["alice"].Row.UserID)
	require.Equal(t, "alice", owners["bob"].Row.UserID)
	require.Equal(t, "nick_bob", owners["alice"].Row.ShowName)
}

func TestSendMessageExistingConversationKeepsDisplay(t *testing.T) {
	var applied []*store.ConversationMutation
	fake := &storetest.Fake{
		TakeConversationFn: func(_ context.Context, owner, convID string) (*model.Conversation, error) {
			return &model.Conversation{
				OwnerUserID:      owner,
				ConversationID:   convID,
				ConversationType: model.ConversationTypeP2P,
				ShowName:         "已有展示名",
				LastReadMsgID:    7,
			}, nil
		},
		ApplyConversationFn: func(_ context.Context, mut *store.ConversationMutation) (string, error) {
			applied = append(applied, mut)
			return "v", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)

	_, err := svc.SendMessage(context.Background(), "alice", "bob", 1, "again")
	require.NoError(t, err)
	require.Len(t, applied, 2)
	for _, mut := range applied {
		require.Equal(t, model.ConversationChangeNewMessage, mut.Change.Kind)
		require.Equal(t, "已有展示名", mut.Row.ShowName)
		// 已读光标不被新消息投影动过
		require.Equal(t, int64(7), mut.Row.LastReadMsgID)
	}
}

func TestSendMessageTruncatesPreview(t *testing.T) {
	var applied []*store.ConversationMutation
	fake := &storetest.Fake{
		ApplyConversationFn: func(_ context.Context, mut *store.ConversationMutation) (string, error) {
			applied = append(applied, mut)
			return "v", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)

	long := strings.Repeat("长", 100)
	msg, err := svc.SendMessage(context.Background(), "alice", "bob", 1, long)
	require.NoError(t, err)
	// 消息主干保留全文，会话缓存只存截断预览
	require.Equal(t, long, msg.Content)
	for _, mut := range applied {
		require.Equal(t, 64, len([]rune(mut.Row.LastMsgText)))
	}
}

func TestSendMessageValidation(t *testing.T) {
	svc := NewService(&storetest.Fake{}, fakeProfiles{}, nil)

	_, err := svc.SendMessage(context.Background(), "alice", "alice", 1, "hi")
	require.True(t, errs.ErrArgs.Is(err))
	_, err = svc.SendMessage(context.Background(), "alice", "bob", 1, "")
	require.True(t, errs.ErrArgs.Is(err))
	_, err = svc.SendMessage(context.Background(), "", "bob", 1, "hi")
	require.True(t, errs.ErrArgs.Is(err))
}

func TestSendGroupMessageFansOut(t *testing.T) {
	var applied []*store.ConversationMutation
	fake := &storetest.Fake{
		ApplyConversationFn: func(_ context.Context, mut *store.ConversationMutation) (string, error) {
			applied = append(applied, mut)
			return "v", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)

	// 成员表里带重复和发送者本人，投影按去重后的人头算
	msg, err := svc.SendGroupMessage(context.Background(), "alice", "g1",
		[]string{"bob", "carol", "bob", "alice"}, 1, "大家好")
	require.NoError(t, err)
	require.Equal(t, "grp:g1", msg.ConversationID)
	require.Len(t, applied, 3)

	owners := map[string]struct{}{}
	for _, mut := range applied {
		owners[mut.OwnerUserID] = struct{}{}
		require.Equal(t, model.ConversationTypeGroup, mut.Row.ConversationType)
		require.Equal(t, "g1", mut.Row.GroupID)
	}
	require.Equal(t, map[string]struct{}{"alice": {}, "bob": {}, "carol": {}}, owners)
}

func TestMarkReadPublishesOnlyWhenAdvanced(t *testing.T) {
	fake := &storetest.Fake{
		MarkReadFn: func(_ context.Context, owner, convID string, upTo int64) (int64, string, error) {
			if upTo <= 10 {
				return 10, "", nil // 光标未前进
			}
			return upTo, "v2", nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)

	read, err := svc.MarkRead(context.Background(), "alice", "p2p:alice:bob", 5)
	require.NoError(t, err)
	require.Equal(t, int64(10), read)

	read, err = svc.MarkRead(context.Background(), "alice", "p2p:alice:bob", 20)
	require.NoError(t, err)
	require.Equal(t, int64(20), read)

	_, err = svc.MarkRead(context.Background(), "alice", "p2p:alice:bob", -1)
	require.True(t, errs.ErrArgs.Is(err))
}

func TestTakeConversationDerivesUnread(t *testing.T) {
	fake := &storetest.Fake{
		TakeConversationFn: func(_ context.Context, owner, convID string) (*model.Conversation, error) {
			return &model.Conversation{
				OwnerUserID:    owner,
				ConversationID: convID,
				LastReadMsgID:  42,
			}, nil
		},
		UnreadCountFn: func(_ context.Context, owner, convID string, lastRead int64) (int64, error) {
			require.Equal(t, int64(42), lastRead)
			return 3, nil
		},
	}
	svc := NewService(fake, fakeProfiles{}, nil)

	view, err := svc.TakeConversation(context.Background(), "alice", "p2p:alice:bob")
	require.NoError(t, err)
	require.Equal(t, int64(3), view.Unread)
	require.Equal(t, int64(42), view.Conversation.LastReadMsgID)
}

func TestRemoveConversationMissingIsNoop(t *testing.T) {
	svc := NewService(&storetest.Fake{}, fakeProfiles{}, nil)
	require.NoError(t, svc.RemoveConversation(context.Background(), "alice", "grp:g1"))
}
