package group

import (
	"context"

	"ChatSync/data/store"
	"ChatSync/logger"
	"ChatSync/module/conversation"
	"ChatSync/module/group/model"
	"ChatSync/service/notify"
	errs "ChatSync/tools/errs"
	"ChatSync/tools/safe"

	"go.uber.org/zap"
)

// Service 群成员关系编排：按成员视角维护 user_group 行与变更日志，
// 与 relation 域共用“行存在即有效、删行即结束”的约定。
type Service struct {
	store         store.Store
	conversations *conversation.Service
	notifier      notify.Notifier
}

func NewService(st store.Store, conversations *conversation.Service, notifier notify.Notifier) *Service {
	safe.MustNotNil(st, "store")
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Service{store: st, conversations: conversations, notifier: notifier}
}

type JoinGroupReq struct {
	OwnerUserID  string
	GroupID      string
	GroupName    string
	GroupFaceURL string
	MemberNick   string
}

func (s *Service) JoinGroup(ctx context.Context, req *JoinGroupReq) error {
	if req == nil || req.OwnerUserID == "" || req.GroupID == "" {
		return errs.ErrArgs.WrapMsg("empty member or group")
	}
	if _, err := s.store.TakeUserGroup(ctx, req.OwnerUserID, req.GroupID); err == nil {
		return errs.ErrGroupMemberDuplicate.WrapMsg("already member",
			"owner", req.OwnerUserID, "group", req.GroupID)
	} else if !errs.ErrRecordNotFound.Is(err) {
		return err
	}

	ver, err := s.store.ApplyUserGroup(ctx, &store.GroupMutation{
		OwnerUserID: req.OwnerUserID,
		GroupID:     req.GroupID,
		Action:      store.ActionUpsert,
		Row: &model.UserGroup{
			OwnerUserID:  req.OwnerUserID,
			GroupID:      req.GroupID,
			GroupName:    req.GroupName,
			GroupFaceURL: req.GroupFaceURL,
			MemberNick:   req.MemberNick,
		},
		Change: &model.GroupChange{
			OwnerUserID: req.OwnerUserID,
			GroupID:     req.GroupID,
			Kind:        model.GroupChangeJoin,
			Payload: map[string]string{
				model.GroupPayloadKeyGroupName:  req.GroupName,
				model.GroupPayloadKeyFaceURL:    req.GroupFaceURL,
				model.GroupPayloadKeyMemberNick: req.MemberNick,
			},
		},
	})
	if err != nil {
		return err
	}
	s.publishChange(ctx, req.OwnerUserID, ver)
	return nil
}

// QuitGroup 退群即删行，并联动移除该成员的群会话视图行。
func (s *Service) QuitGroup(ctx context.Context, ownerUserID, groupID string) error {
	if ownerUserID == "" || groupID == "" {
		return errs.ErrArgs.WrapMsg("empty member or group")
	}
	if _, err := s.store.TakeUserGroup(ctx, ownerUserID, groupID); err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return errs.ErrGroupMemberNotFound.WrapMsg("not member",
				"owner", ownerUserID, "group", groupID)
		}
		return err
	}

	ver, err := s.store.ApplyUserGroup(ctx, &store.GroupMutation{
		OwnerUserID: ownerUserID,
		GroupID:     groupID,
		Action:      store.ActionDelete,
		Change: &model.GroupChange{
			OwnerUserID: ownerUserID,
			GroupID:     groupID,
			Kind:        model.GroupChangeQuit,
		},
	})
	if err != nil {
		return err
	}
	s.publishChange(ctx, ownerUserID, ver)

	if s.conversations != nil {
		convID := conversation.GroupConversationID(groupID)
		if err := s.conversations.RemoveConversation(ctx, ownerUserID, convID); err != nil {
			logger.Warn("remove group conversation failed",
				zap.String("owner", ownerUserID), zap.String("conv", convID), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) UpdateGroupMemberNickname(ctx context.Context, ownerUserID, groupID, memberNick string) error {
	if ownerUserID == "" || groupID == "" {
		return errs.ErrArgs.WrapMsg("empty member or group")
	}
	cur, err := s.store.TakeUserGroup(ctx, ownerUserID, groupID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return errs.ErrGroupMemberNotFound.WrapMsg("not member",
				"owner", ownerUserID, "group", groupID)
		}
		return err
	}
	row := *cur
	row.MemberNick = memberNick

	ver, err := s.store.ApplyUserGroup(ctx, &store.GroupMutation{
		OwnerUserID: ownerUserID,
		GroupID:     groupID,
		Action:      store.ActionUpsert,
		Row:         &row,
		Change: &model.GroupChange{
			OwnerUserID: ownerUserID,
			GroupID:     groupID,
			Kind:        model.GroupChangeMemberInfo,
			Payload:     map[string]string{model.GroupPayloadKeyMemberNick: memberNick},
		},
	})
	if err != nil {
		return err
	}
	s.publishChange(ctx, ownerUserID, ver)
	return nil
}

func (s *Service) ListUserGroups(ctx context.Context, ownerUserID, pageToken string, pageSize int) (*store.UserGroupPage, error) {
	if ownerUserID == "" {
		return nil, errs.ErrArgs.WrapMsg("empty owner")
	}
	return s.store.ListUserGroups(ctx, ownerUserID, pageToken, pageSize)
}

func (s *Service) GetGroupChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*store.GroupChangeSet, error) {
	if ownerUserID == "" {
		return nil, errs.ErrArgs.WrapMsg("empty owner")
	}
	return s.store.GroupChanges(ctx, ownerUserID, afterVersion, limit)
}

func (s *Service) GetLatestGroupVersion(ctx context.Context, ownerUserID string) (string, error) {
	if ownerUserID == "" {
		return "", errs.ErrArgs.WrapMsg("empty owner")
	}
	return s.store.LatestGroupVersion(ctx, ownerUserID)
}

func (s *Service) publishChange(ctx context.Context, ownerUserID, version string) {
	if version == "" {
		return
	}
	if err := s.notifier.Publish(ctx, notify.NewEvent(notify.DomainGroup, ownerUserID, version)); err != nil {
		logger.Warn("publish group change failed",
			zap.String("owner", ownerUserID), zap.String("version", version), zap.Error(err))
	}
}
