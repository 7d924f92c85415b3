package relation

import (
	"context"

	"ChatSync/module/relation/model"
)

// ProfileLookup 用户资料查询（外部协作方）。
// 目标用户不存在时实现方返回 errs.ErrRecordNotFound。
type ProfileLookup interface {
	TakeProfile(ctx context.Context, userID string) (*model.UserProfile, error)
}
