package relation

import (
	"context"

	"ChatSync/data/store"
	"ChatSync/logger"
	"ChatSync/module/conversation"
	convmodel "ChatSync/module/conversation/model"
	"ChatSync/module/relation/model"
	"ChatSync/service/notify"
	errs "ChatSync/tools/errs"
	"ChatSync/tools/safe"

	"go.uber.org/zap"
)

// Service 关系域编排：参数校验 → 资料查询 → 读当前行 → 位集迁移 →
// 原子落库（实体 + 变更日志）→ 单聊会话展示字段联动 → 变更通知。
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

func checkPair(ownerUserID, targetUserID string) error {
	if ownerUserID == "" || targetUserID == "" {
		return errs.ErrArgs.WrapMsg("empty user id")
	}
	if ownerUserID == targetUserID {
		return errs.ErrArgs.WrapMsg("owner equals target", "user", ownerUserID)
	}
	return nil
}

// takeCurrent 读当前关系行；未命中不算错（hasRow=false）。
func (s *Service) takeCurrent(ctx context.Context, ownerUserID, targetUserID string) (*model.Relation, bool, error) {
	rel, err := s.store.TakeRelation(ctx, ownerUserID, targetUserID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return rel, true, nil
}

func (s *Service) AddFriend(ctx context.Context, ownerUserID, targetUserID string) error {
	if err := checkPair(ownerUserID, targetUserID); err != nil {
		return err
	}
	prof, err := s.profiles.TakeProfile(ctx, targetUserID)
	if err != nil {
		return err
	}
	cur, hasRow, err := s.takeCurrent(ctx, ownerUserID, targetUserID)
	if err != nil {
		return err
	}
	var curFlags model.Flags
	if hasRow {
		curFlags = cur.Flags
	}
	next, kind, err := transition(opAddFriend, curFlags, hasRow)
	if err != nil {
		return err
	}

	row := &model.Relation{
		OwnerUserID:  ownerUserID,
		TargetUserID: targetUserID,
		Nickname:     prof.Nickname,
		FaceURL:      prof.FaceURL,
		Flags:        next,
	}
	if hasRow {
		// 重置为纯好友时保留用户自己定义的备注
		row.Remark = cur.Remark
		row.CreateTime = cur.CreateTime
	}
	ver, err := s.store.ApplyRelation(ctx, &store.RelationMutation{
		OwnerUserID:  ownerUserID,
		TargetUserID: targetUserID,
		Action:       store.ActionUpsert,
		Row:          row,
		Change: &model.RelationChange{
			OwnerUserID:  ownerUserID,
			TargetUserID: targetUserID,
			Kind:         kind,
			Flags:        next,
			Payload: map[string]string{
				model.PayloadKeyNickname: prof.Nickname,
				model.PayloadKeyFaceURL:  prof.FaceURL,
			},
		},
	})
	if err != nil {
		return err
	}
	s.publishChange(ctx, ownerUserID, ver)
	s.propagateDisplay(ctx, ownerUserID, targetUserID, row)
	return nil
}

func (s *Service) RemoveFriend(ctx context.Context, ownerUserID, targetUserID string) error {
	return s.applyFlagOp(ctx, ownerUserID, targetUserID, opRemoveFriend)
}

func (s *Service) BlockFriend(ctx context.Context, ownerUserID, targetUserID string) error {
	return s.applyFlagOp(ctx, ownerUserID, targetUserID, opBlockFriend)
}

func (s *Service) BlockStranger(ctx context.Context, ownerUserID, targetUserID string) error {
	if err := checkPair(ownerUserID, targetUserID); err != nil {
		return err
	}
	prof, err := s.profiles.TakeProfile(ctx, targetUserID)
	if err != nil {
		return err
	}
	_, hasRow, err := s.takeCurrent(ctx, ownerUserID, targetUserID)
	if err != nil {
		return err
	}
	next, kind, err := transition(opBlockStranger, 0, hasRow)
	if err != nil {
		return err
	}
	ver, err := s.store.ApplyRelation(ctx, &store.RelationMutation{
		OwnerUserID:  ownerUserID,
		TargetUserID: targetUserID,
		Action:       store.ActionUpsert,
		Row: &model.Relation{
			OwnerUserID:  ownerUserID,
			TargetUserID: targetUserID,
			Nickname:     prof.Nickname,
			FaceURL:      prof.FaceURL,
			Flags:        next,
		},
		Change: &model.RelationChange{
			OwnerUserID:  ownerUserID,
			TargetUserID: targetUserID,
			Kind:         kind,
			Flags:        next,
		},
	})
	if err != nil {
		return err
	}
	s.publishChange(ctx, ownerUserID, ver)
	return nil
}

func (s *Service) UnblockUser(ctx context.Context, ownerUserID, targetUserID string) error {
	return s.applyFlagOp(ctx, ownerUserID, targetUserID, opUnblock)
}

func (s *Service) HideBlockedUser(ctx context.Context, ownerUserID, targetUserID string) error {
	return s.applyFlagOp(ctx, ownerUserID, targetUserID, opHide)
}

// applyFlagOp 作用于已存在行的位集迁移共用路径：迁移结果为 0 时删行。
func (s *Service) applyFlagOp(ctx context.Context, ownerUserID, targetUserID string, op flagOp) error {
	if err := checkPair(ownerUserID, targetUserID); err != nil {
		return err
	}
	cur, hasRow, err := s.takeCurrent(ctx, ownerUserID, targetUserID)
	if err != nil {
		return err
	}
	var curFlags model.Flags
	if hasRow {
		curFlags = cur.Flags
	}
	next, kind, err := transition(op, curFlags, hasRow)
	if err != nil {
		return err
	}

	mut := &store.RelationMutation{
		OwnerUserID:  ownerUserID,
		TargetUserID: targetUserID,
		Change: &model.RelationChange{
			OwnerUserID:  ownerUserID,
			TargetUserID: targetUserID,
			Kind:         kind,
			Flags:        next,
		},
	}
	if next == 0 {
		mut.Action = store.ActionDelete
	} else {
		mut.Action = store.ActionUpsert
		row := *cur
		row.Flags = next
		mut.Row = &row
	}
	ver, err := s.store.ApplyRelation(ctx, mut)
	if err != nil {
		return err
	}
	s.publishChange(ctx, ownerUserID, ver)
	return nil
}

func (s *Service) UpdateFriendRemark(ctx context.Context, ownerUserID, targetUserID, remark string) error {
	return s.updateInfo(ctx, ownerUserID, targetUserID, model.RelationChangeUpdateRemark,
		func(row *model.Relation) { row.Remark = remark },
		map[string]string{model.PayloadKeyRemark: remark})
}

// UpdateFriendNickname 刷新对方昵称快照（资料变更事件驱动）。
func (s *Service) UpdateFriendNickname(ctx context.Context, ownerUserID, targetUserID, nickname string) error {
	return s.updateInfo(ctx, ownerUserID, targetUserID, model.RelationChangeUpdateNickname,
		func(row *model.Relation) { row.Nickname = nickname },
		map[string]string{model.PayloadKeyNickname: nickname})
}

func (s *Service) UpdateFriendFaceURL(ctx context.Context, ownerUserID, targetUserID, faceURL string) error {
	return s.updateInfo(ctx, ownerUserID, targetUserID, model.RelationChangeUpdateFaceURL,
		func(row *model.Relation) { row.FaceURL = faceURL },
		map[string]string{model.PayloadKeyFaceURL: faceURL})
}

// SyncFriendInfo 从资料源整体刷新昵称+头像快照。
func (s *Service) SyncFriendInfo(ctx context.Context, ownerUserID, targetUserID string) error {
	if err := checkPair(ownerUserID, targetUserID); err != nil {
		return err
	}
	prof, err := s.profiles.TakeProfile(ctx, targetUserID)
	if err != nil {
		return err
	}
	return s.updateInfo(ctx, ownerUserID, targetUserID, model.RelationChangeSyncInfo,
		func(row *model.Relation) {
			row.Nickname = prof.Nickname
			row.FaceURL = prof.FaceURL
		},
		map[string]string{
			model.PayloadKeyNickname: prof.Nickname,
			model.PayloadKeyFaceURL:  prof.FaceURL,
		})
}

// updateInfo 信息类更新共用路径：行必须已存在，位集不变。
func (s *Service) updateInfo(ctx context.Context, ownerUserID, targetUserID string,
	kind model.RelationChangeKind, apply func(*model.Relation), payload map[string]string) error {
	if err := checkPair(ownerUserID, targetUserID); err != nil {
		return err
	}
	cur, err := s.store.TakeRelation(ctx, ownerUserID, targetUserID)
	if err != nil {
		return err
	}
	row := *cur
	apply(&row)

	ver, err := s.store.ApplyRelation(ctx, &store.RelationMutation{
		OwnerUserID:  ownerUserID,
		TargetUserID: targetUserID,
		Action:       store.ActionUpsert,
		Row:          &row,
		Change: &model.RelationChange{
			OwnerUserID:  ownerUserID,
			TargetUserID: targetUserID,
			Kind:         kind,
			Flags:        row.Flags,
			Payload:      payload,
		},
	})
	if err != nil {
		return err
	}
	s.publishChange(ctx, ownerUserID, ver)
	s.propagateDisplay(ctx, ownerUserID, targetUserID, &row)
	return nil
}

func (s *Service) GetRelationBetweenUser(ctx context.Context, ownerUserID, targetUserID string) (*model.Relation, error) {
	if err := checkPair(ownerUserID, targetUserID); err != nil {
		return nil, err
	}
	return s.store.TakeRelation(ctx, ownerUserID, targetUserID)
}

func (s *Service) GetRelations(ctx context.Context, ownerUserID, pageToken string, pageSize int) (*store.RelationPage, error) {
	if ownerUserID == "" {
		return nil, errs.ErrArgs.WrapMsg("empty owner")
	}
	return s.store.ListRelations(ctx, ownerUserID, pageToken, pageSize)
}

func (s *Service) GetFriendIDs(ctx context.Context, ownerUserID string) ([]string, error) {
	if ownerUserID == "" {
		return nil, errs.ErrArgs.WrapMsg("empty owner")
	}
	return s.store.ListFriendIDs(ctx, ownerUserID)
}

func (s *Service) GetRelationChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*store.RelationChangeSet, error) {
	if ownerUserID == "" {
		return nil, errs.ErrArgs.WrapMsg("empty owner")
	}
	return s.store.RelationChanges(ctx, ownerUserID, afterVersion, limit)
}

func (s *Service) GetLatestRelationVersion(ctx context.Context, ownerUserID string) (string, error) {
	if ownerUserID == "" {
		return "", errs.ErrArgs.WrapMsg("empty owner")
	}
	return s.store.LatestRelationVersion(ctx, ownerUserID)
}

// propagateDisplay 把备注/昵称变化同步到已物化的单聊会话行。
// 关系写已提交，这里失败只降级为日志。
func (s *Service) propagateDisplay(ctx context.Context, ownerUserID, targetUserID string, rel *model.Relation) {
	convID := conversation.P2PConversationID(ownerUserID, targetUserID)
	conv, err := s.store.TakeConversation(ctx, ownerUserID, convID)
	if err != nil {
		if !errs.ErrRecordNotFound.Is(err) {
			logger.Warn("propagate display: take conversation failed",
				zap.String("owner", ownerUserID), zap.String("conv", convID), zap.Error(err))
		}
		return
	}
	showName := rel.ShowName()
	if conv.ShowName == showName && conv.FaceURL == rel.FaceURL {
		return
	}
	row := *conv
	row.ShowName = showName
	row.FaceURL = rel.FaceURL
	ver, err := s.store.ApplyConversation(ctx, &store.ConversationMutation{
		OwnerUserID:    ownerUserID,
		ConversationID: convID,
		Action:         store.ActionUpsert,
		Row:            &row,
		Change: &convmodel.ConversationChange{
			OwnerUserID:    ownerUserID,
			ConversationID: convID,
			Kind:           convmodel.ConversationChangeInfoUpdated,
			Payload: map[string]string{
				convmodel.ConvPayloadKeyShowName: showName,
				convmodel.ConvPayloadKeyFaceURL:  rel.FaceURL,
			},
		},
	})
	if err != nil {
		logger.Warn("propagate display: apply conversation failed",
			zap.String("owner", ownerUserID), zap.String("conv", convID), zap.Error(err))
		return
	}
	if err := s.notifier.Publish(ctx, notify.NewEvent(notify.DomainConversation, ownerUserID, ver)); err != nil {
		logger.Warn("publish conversation change failed",
			zap.String("owner", ownerUserID), zap.Error(err))
	}
}

func (s *Service) publishChange(ctx context.Context, ownerUserID, version string) {
	if version == "" {
		return
	}
	if err := s.notifier.Publish(ctx, notify.NewEvent(notify.DomainRelation, ownerUserID, version)); err != nil {
		logger.Warn("publish relation change failed",
			zap.String("owner", ownerUserID), zap.String("version", version), zap.Error(err))
	}
}
