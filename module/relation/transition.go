package relation

import (
	"ChatSync/module/relation/model"
	errs "ChatSync/tools/errs"
)

// flagOp 关系位集迁移操作。备注/快照等信息类更新不改位集，不走这张表。
type flagOp int32

const (
	opAddFriend flagOp = iota + 1
	opRemoveFriend
	opBlockFriend
	opBlockStranger
	opUnblock
	opHide
)

// transition 是位集的唯一写入点：输入当前位集与是否存在行，
// 输出迁移后的位集、对应的变更类型。next == 0 表示行应被删除。
func transition(op flagOp, cur model.Flags, hasRow bool) (next model.Flags, kind model.RelationChangeKind, err error) {
	switch op {
	case opAddFriend:
		if hasRow && cur.IsFriend() {
			return 0, 0, errs.ErrDuplicateKey.WrapMsg("already friend")
		}
		// 已拉黑/已隐藏的行重新加好友：位集重置为纯好友
		return model.FlagFriend, model.RelationChangeAddFriend, nil

	case opRemoveFriend:
		if !hasRow || !cur.IsFriend() {
			return 0, 0, errs.ErrRecordNotFound.WrapMsg("not friend")
		}
		return cur.Without(model.FlagFriend), model.RelationChangeRemoveFriend, nil

	case opBlockFriend:
		if !hasRow {
			return 0, 0, errs.ErrRecordNotFound.WrapMsg("no relation")
		}
		// 已拉黑（含拉黑过的陌生人）重复拉黑按已存在处理
		if cur.IsBlocked() {
			return 0, 0, errs.ErrDuplicateKey.WrapMsg("already blocked")
		}
		return cur.With(model.FlagBlocked), model.RelationChangeBlockFriend, nil

	case opBlockStranger:
		if hasRow {
			return 0, 0, errs.ErrStrangerHasRelationship.WrapMsg("relation exists, block as friend instead")
		}
		return model.FlagBlocked, model.RelationChangeBlockStranger, nil

	case opUnblock:
		if !hasRow || !cur.IsBlocked() {
			return 0, 0, errs.ErrRecordNotFound.WrapMsg("not blocked")
		}
		next = cur.Without(model.FlagBlocked)
		if next.IsFriend() {
			// 隐藏位只在拉黑期间有意义，恢复好友时一并清掉
			return model.FlagFriend, model.RelationChangeRestoreFriend, nil
		}
		// 剩余仅 HIDDEN（或为空）：删行
		return 0, model.RelationChangeUnblock, nil

	case opHide:
		if !hasRow || !cur.IsBlocked() {
			return 0, 0, errs.ErrRecordNotFound.WrapMsg("not blocked")
		}
		if cur.IsHidden() {
			return 0, 0, errs.ErrDuplicateKey.WrapMsg("already hidden")
		}
		// 隐藏蕴含非好友：置 HIDDEN 的同时清 FRIEND
		return cur.Without(model.FlagFriend).With(model.FlagHidden), model.RelationChangeHide, nil
	}
	return 0, 0, errs.ErrArgs.WrapMsg("unknown flag op")
}
