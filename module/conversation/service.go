package conversation

import (
	"context"
	"strconv"
	"time"

	"ChatSync/data/store"
	"ChatSync/logger"
	"ChatSync/module/conversation/model"
	relationmodel "ChatSync/module/relation/model"
	"ChatSync/service/notify"
	errs "ChatSync/tools/errs"
	"ChatSync/tools/ids"
	"ChatSync/tools/safe"

	"go.uber.org/zap"
)

// ProfileLookup 资料查询，会话物化时的展示名兜底来源。
type ProfileLookup interface {
	TakeProfile(ctx context.Context, userID string) (*relationmodel.UserProfile, error)
}

// Service 会话投影编排：消息主干写入 + 每个参与者的会话视图行维护
// （最后消息缓存、已读光标、派生未读数）。
type Service struct {
	store    store.Store
	profiles ProfileLookup
	notifier notify.Notifier
}

func NewService(st store.Store, profiles ProfileLookup, notifier notify.Notifier) *Service {
	safe.MustNotNil(st, "store")
	safe.MustNotNil(profiles, "profiles")
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Service{store: st, profiles: profiles, notifier: notifier}
}

// View 会话视图读取结果：行 + 读取时推导的未读数。
type View struct {
	Conversation *model.Conversation
	Unread       int64
}

func formatInt64(v int64) string { return strconv.FormatInt(v, 10) }

// truncatePreview 按 rune 截断最后消息预览。
func truncatePreview(content string) string {
	r := []rune(content)
	if len(r) <= model.LastMsgPreviewLen {
		return content
	}
	return string(r[:model.LastMsgPreviewLen])
}

// SendMessage 单聊发消息：写消息主干，再为双方各自投影会话视图行。
// 消息写入成功即算发送成功，单侧投影失败降级为日志。
func (s *Service) SendMessage(ctx context.Context, sendUserID, recvUserID string, contentType int32, content string) (*model.Message, error) {
	if sendUserID == "" || recvUserID == "" {
		return nil, errs.ErrArgs.WrapMsg("empty user id")
	}
	if sendUserID == recvUserID {
		return nil, errs.ErrArgs.WrapMsg("send to self", "user", sendUserID)
	}
	if content == "" {
		return nil, errs.ErrArgs.WrapMsg("empty content")
	}

	convID := P2PConversationID(sendUserID, recvUserID)
	msg := &model.Message{
		ConversationID: convID,
		MsgID:          ids.Generate(),
		SendID:         sendUserID,
		ContentType:    contentType,
		Content:        content,
		SendTime:       time.Now().UnixMilli(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.projectP2P(ctx, sendUserID, recvUserID, msg)
	s.projectP2P(ctx, recvUserID, sendUserID, msg)
	return msg, nil
}

// SendGroupMessage 群聊发消息：消息主干写一次，再按成员列表逐人投影。
// 成员列表由调用方（群服务）给出，这里不负责扇出名单的权威性。
func (s *Service) SendGroupMessage(ctx context.Context, sendUserID, groupID string, memberIDs []string, contentType int32, content string) (*model.Message, error) {
	if sendUserID == "" || groupID == "" {
		return nil, errs.ErrArgs.WrapMsg("empty sender or group")
	}
	if content == "" {
		return nil, errs.ErrArgs.WrapMsg("empty content")
	}

	convID := GroupConversationID(groupID)
	msg := &model.Message{
		ConversationID: convID,
		MsgID:          ids.Generate(),
		SendID:         sendUserID,
		ContentType:    contentType,
		Content:        content,
		SendTime:       time.Now().UnixMilli(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{sendUserID: {}}
	s.projectGroup(ctx, sendUserID, groupID, msg)
	for _, member := range memberIDs {
		if _, ok := seen[member]; ok {
			continue
		}
		seen[member] = struct{}{}
		s.projectGroup(ctx, member, groupID, msg)
	}
	return msg, nil
}

// projectP2P 为 owner 维护单聊会话行：首条消息物化，之后覆盖最后消息缓存。
func (s *Service) projectP2P(ctx context.Context, ownerUserID, peerUserID string, msg *model.Message) {
	conv, err := s.store.TakeConversation(ctx, ownerUserID, msg.ConversationID)
	if err != nil && !errs.ErrRecordNotFound.Is(err) {
		logger.Warn("project p2p: take conversation failed",
			zap.String("owner", ownerUserID), zap.String("conv", msg.ConversationID), zap.Error(err))
		return
	}

	var row model.Conversation
	kind := model.ConversationChangeNewMessage
	if conv == nil {
		showName, faceURL := s.resolveP2PDisplay(ctx, ownerUserID, peerUserID)
		row = model.Conversation{
			OwnerUserID:      ownerUserID,
			ConversationID:   msg.ConversationID,
			ConversationType: model.ConversationTypeP2P,
			UserID:           peerUserID,
			ShowName:         showName,
			FaceURL:          faceURL,
		}
		kind = model.ConversationChangeCreated
	} else {
		row = *conv
	}
	s.applyLastMsg(ctx, &row, msg, kind)
}

func (s *Service) projectGroup(ctx context.Context, ownerUserID, groupID string, msg *model.Message) {
	conv, err := s.store.TakeConversation(ctx, ownerUserID, msg.ConversationID)
	if err != nil && !errs.ErrRecordNotFound.Is(err) {
		logger.Warn("project group: take conversation failed",
			zap.String("owner", ownerUserID), zap.String("conv", msg.ConversationID), zap.Error(err))
		return
	}

	var row model.Conversation
	kind := model.ConversationChangeNewMessage
	if conv == nil {
		showName, faceURL := groupID, ""
		if ug, err := s.store.TakeUserGroup(ctx, ownerUserID, groupID); err == nil {
			if ug.GroupName != "" {
				showName = ug.GroupName
			}
			faceURL = ug.GroupFaceURL
		}
		row = model.Conversation{
			OwnerUserID:      ownerUserID,
			ConversationID:   msg.ConversationID,
			ConversationType: model.ConversationTypeGroup,
			GroupID:          groupID,
			ShowName:         showName,
			FaceURL:          faceURL,
		}
		kind = model.ConversationChangeCreated
	} else {
		row = *conv
	}
	s.applyLastMsg(ctx, &row, msg, kind)
}

func (s *Service) applyLastMsg(ctx context.Context, row *model.Conversation, msg *model.Message, kind model.ConversationChangeKind) {
	preview := truncatePreview(msg.Content)
	row.LastMsgID = msg.MsgID
	row.LastMsgText = preview
	row.LastMsgTime = msg.SendTime

	ver, err := s.store.ApplyConversation(ctx, &store.ConversationMutation{
		OwnerUserID:    row.OwnerUserID,
		ConversationID: row.ConversationID,
		Action:         store.ActionUpsert,
		Row:            row,
		Change: &model.ConversationChange{
			OwnerUserID:    row.OwnerUserID,
			ConversationID: row.ConversationID,
			Kind:           kind,
			Payload: map[string]string{
				model.ConvPayloadKeyLastMsgID:  formatInt64(msg.MsgID),
				model.ConvPayloadKeyMsgPreview: preview,
			},
		},
	})
	if err != nil {
		logger.Warn("apply conversation projection failed",
			zap.String("owner", row.OwnerUserID), zap.String("conv", row.ConversationID), zap.Error(err))
		return
	}
	s.publishChange(ctx, row.OwnerUserID, ver)
}

// resolveP2PDisplay 展示名兜底链：关系行 ShowName（备注 > 昵称）> 原始资料 > 对方ID。
func (s *Service) resolveP2PDisplay(ctx context.Context, ownerUserID, peerUserID string) (showName, faceURL string) {
	if rel, err := s.store.TakeRelation(ctx, ownerUserID, peerUserID); err == nil {
		return rel.ShowName(), rel.FaceURL
	}
	if prof, err := s.profiles.TakeProfile(ctx, peerUserID); err == nil {
		return prof.Nickname, prof.FaceURL
	}
	return peerUserID, ""
}

// MarkRead 推进已读光标；光标未前进时是空操作（不追加记录、不通知）。
func (s *Service) MarkRead(ctx context.Context, ownerUserID, conversationID string, upToMsgID int64) (int64, error) {
	if ownerUserID == "" || conversationID == "" {
		return 0, errs.ErrArgs.WrapMsg("empty owner or conversation")
	}
	if upToMsgID < 0 {
		return 0, errs.ErrArgs.WrapMsg("negative msg id", "msg_id", upToMsgID)
	}
	readMsgID, ver, err := s.store.MarkRead(ctx, ownerUserID, conversationID, upToMsgID)
	if err != nil {
		return 0, err
	}
	s.publishChange(ctx, ownerUserID, ver)
	return readMsgID, nil
}

// TakeConversation 点查会话并推导未读数。
func (s *Service) TakeConversation(ctx context.Context, ownerUserID, conversationID string) (*View, error) {
	if ownerUserID == "" || conversationID == "" {
		return nil, errs.ErrArgs.WrapMsg("empty owner or conversation")
	}
	conv, err := s.store.TakeConversation(ctx, ownerUserID, conversationID)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.UnreadCount(ctx, ownerUserID, conversationID, conv.LastReadMsgID)
	if err != nil {
		return nil, err
	}
	return &View{Conversation: conv, Unread: unread}, nil
}

func (s *Service) GetConversations(ctx context.Context, ownerUserID, pageToken string, pageSize int) (*store.ConversationPage, error) {
	if ownerUserID == "" {
		return nil, errs.ErrArgs.WrapMsg("empty owner")
	}
	return s.store.ListConversations(ctx, ownerUserID, pageToken, pageSize)
}

func (s *Service) GetConversationChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*store.ConversationChangeSet, error) {
	if ownerUserID == "" {
		return nil, errs.ErrArgs.WrapMsg("empty owner")
	}
	return s.store.ConversationChanges(ctx, ownerUserID, afterVersion, limit)
}

func (s *Service) GetLatestConversationVersion(ctx context.Context, ownerUserID string) (string, error) {
	if ownerUserID == "" {
		return "", errs.ErrArgs.WrapMsg("empty owner")
	}
	return s.store.LatestConversationVersion(ctx, ownerUserID)
}

// RemoveConversation 移除会话视图行（退群联动），消息主干不动。
func (s *Service) RemoveConversation(ctx context.Context, ownerUserID, conversationID string) error {
	if ownerUserID == "" || conversationID == "" {
		return errs.ErrArgs.WrapMsg("empty owner or conversation")
	}
	if _, err := s.store.TakeConversation(ctx, ownerUserID, conversationID); err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return nil
		}
		return err
	}
	ver, err := s.store.ApplyConversation(ctx, &store.ConversationMutation{
		OwnerUserID:    ownerUserID,
		ConversationID: conversationID,
		Action:         store.ActionDelete,
		Change: &model.ConversationChange{
			OwnerUserID:    ownerUserID,
			ConversationID: conversationID,
			Kind:           model.ConversationChangeRemoved,
		},
	})
	if err != nil {
		return err
	}
	s.publishChange(ctx, ownerUserID, ver)
	return nil
}

func (s *Service) publishChange(ctx context.Context, ownerUserID, version string) {
	if version == "" {
		return
	}
	if err := s.notifier.Publish(ctx, notify.NewEvent(notify.DomainConversation, ownerUserID, version)); err != nil {
		logger.Warn("publish conversation change failed",
			zap.String("owner", ownerUserID), zap.String("version", version), zap.Error(err))
	}
}
