package relation

import (
	"testing"

	"ChatSync/module/relation/model"
	errs "ChatSync/tools/errs"

	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name     string
		op       flagOp
		cur      model.Flags
		hasRow   bool
		wantNext model.Flags
		wantKind model.RelationChangeKind
		wantErr  errs.CodeError
	}{
		{name: "加好友_无行", op: opAddFriend, wantNext: model.FlagFriend, wantKind: model.RelationChangeAddFriend},
		{name: "加好友_已是好友", op: opAddFriend, cur: model.FlagFriend, hasRow: true, wantErr: errs.ErrDuplicateKey},
		{name: "加好友_已拉黑重置为纯好友", op: opAddFriend, cur: model.FlagBlocked, hasRow: true,
			wantNext: model.FlagFriend, wantKind: model.RelationChangeAddFriend},
		{name: "加好友_拉黑且隐藏重置为纯好友", op: opAddFriend, cur: model.FlagBlocked | model.FlagHidden, hasRow: true,
			wantNext: model.FlagFriend, wantKind: model.RelationChangeAddFriend},

		{name: "删好友_无行", op: opRemoveFriend, wantErr: errs.ErrRecordNotFound},
		{name: "删好友_非好友", op: opRemoveFriend, cur: model.FlagBlocked, hasRow: true, wantErr: errs.ErrRecordNotFound},
		{name: "删好友_纯好友清零删行", op: opRemoveFriend, cur: model.FlagFriend, hasRow: true,
			wantNext: 0, wantKind: model.RelationChangeRemoveFriend},
		{name: "删好友_保留拉黑位", op: opRemoveFriend, cur: model.FlagFriend | model.FlagBlocked, hasRow: true,
			wantNext: model.FlagBlocked, wantKind: model.RelationChangeRemoveFriend},

		{name: "拉黑好友_无行", op: opBlockFriend, wantErr: errs.ErrRecordNotFound},
		{name: "拉黑好友_重复拉黑", op: opBlockFriend, cur: model.FlagFriend | model.FlagBlocked, hasRow: true,
			wantErr: errs.ErrDuplicateKey},
		{name: "拉黑好友_行已是纯拉黑", op: opBlockFriend, cur: model.FlagBlocked, hasRow: true,
			wantErr: errs.ErrDuplicateKey},
		{name: "拉黑好友_加拉黑位", op: opBlockFriend, cur: model.FlagFriend, hasRow: true,
			wantNext: model.FlagFriend | model.FlagBlocked, wantKind: model.RelationChangeBlockFriend},

		{name: "拉黑陌生人_新建行", op: opBlockStranger, wantNext: model.FlagBlocked, wantKind: model.RelationChangeBlockStranger},
		{name: "拉黑陌生人_已有关系", op: opBlockStranger, cur: model.FlagFriend, hasRow: true,
			wantErr: errs.ErrStrangerHasRelationship},

		{name: "取消拉黑_无行", op: opUnblock, wantErr: errs.ErrRecordNotFound},
		{name: "取消拉黑_未拉黑", op: opUnblock, cur: model.FlagFriend, hasRow: true, wantErr: errs.ErrRecordNotFound},
		{name: "取消拉黑_恢复好友并清隐藏", op: opUnblock, cur: model.FlagFriend | model.FlagBlocked | model.FlagHidden, hasRow: true,
			wantNext: model.FlagFriend, wantKind: model.RelationChangeRestoreFriend},
		{name: "取消拉黑_陌生人删行", op: opUnblock, cur: model.FlagBlocked, hasRow: true,
			wantNext: 0, wantKind: model.RelationChangeUnblock},
		{name: "取消拉黑_仅剩隐藏位删行", op: opUnblock, cur: model.FlagBlocked | model.FlagHidden, hasRow: true,
			wantNext: 0, wantKind: model.RelationChangeUnblock},

		{name: "隐藏_未拉黑", op: opHide, cur: model.FlagFriend, hasRow: true, wantErr: errs.ErrRecordNotFound},
		{name: "隐藏_重复隐藏", op: opHide, cur: model.FlagBlocked | model.FlagHidden, hasRow: true,
			wantErr: errs.ErrDuplicateKey},
		{name: "隐藏_加隐藏位", op: opHide, cur: model.FlagBlocked, hasRow: true,
			wantNext: model.FlagBlocked | model.FlagHidden, wantKind: model.RelationChangeHide},
		{name: "隐藏_拉黑的好友清好友位", op: opHide, cur: model.FlagFriend | model.FlagBlocked, hasRow: true,
			wantNext: model.FlagBlocked | model.FlagHidden, wantKind: model.RelationChangeHide},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, kind, err := transition(tc.op, tc.cur, tc.hasRow)
			if tc.wantErr.Code != 0 {
				require.Error(t, err)
				require.True(t, tc.wantErr.Is(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantNext, next)
			require.Equal(t, tc.wantKind, kind)
		})
	}
}

func TestTransitionRowInvariant(t *testing.T) {
	// 行存在 ⟺ 位集非零：所有成功迁移中 next==0 的都对应删行语义
	ops := []flagOp{opAddFriend, opRemoveFriend, opBlockFriend, opBlockStranger, opUnblock, opHide}
	for _, op := range ops {
		for cur := model.Flags(0); cur <= 7; cur++ {
			hasRow := cur != 0
			next, _, err := transition(op, cur, hasRow)
			if err != nil {
				continue
			}
			if next == 0 {
				// 删行路径只能由已存在的行走到
				require.True(t, hasRow, "op %d cur %b", op, cur)
			}
		}
	}
}

func TestFlagsHelpers(t *testing.T) {
	f := model.FlagFriend.With(model.FlagBlocked)
	require.True(t, f.IsFriend())
	require.True(t, f.IsBlocked())
	require.False(t, f.IsHidden())
	require.Equal(t, model.FlagBlocked, f.Without(model.FlagFriend))
}
