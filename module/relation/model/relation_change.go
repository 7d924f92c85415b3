package model

import "ChatSync/tools/decode"

// RelationChangeKind 标识一次关系状态迁移的类型。
type RelationChangeKind int32

const (
	RelationChangeAddFriend      RelationChangeKind = 1  // 添加好友
	RelationChangeRemoveFriend   RelationChangeKind = 2  // 删除好友
	RelationChangeUpdateRemark   RelationChangeKind = 3  // 修改备注
	RelationChangeUpdateNickname RelationChangeKind = 4  // 昵称快照刷新
	RelationChangeUpdateFaceURL  RelationChangeKind = 5  // 头像快照刷新
	RelationChangeSyncInfo       RelationChangeKind = 6  // 昵称+头像整体刷新
	RelationChangeBlockFriend    RelationChangeKind = 7  // 拉黑好友
	RelationChangeBlockStranger  RelationChangeKind = 8  // 拉黑陌生人
	RelationChangeUnblock        RelationChangeKind = 9  // 取消拉黑（行被删除）
	RelationChangeRestoreFriend  RelationChangeKind = 10 // 取消拉黑后恢复好友
	RelationChangeHide           RelationChangeKind = 11 // 隐藏已拉黑用户
)

// RelationChange 是关系变更日志的一条记录：按 owner 追加，只增不改，
// 由 version 形成 owner 内全序，供客户端增量同步。
type RelationChange struct {
	OwnerUserID  string             `bson:"owner_user_id" json:"owner_user_id"`
	Version      string             `bson:"version" json:"version"` // 存储层在写入事务内分配
	TargetUserID string             `bson:"target_user_id" json:"target_user_id"`
	Kind         RelationChangeKind `bson:"kind" json:"kind"`
	Flags        Flags              `bson:"flags" json:"flags"` // 变更后的位集（删除时为 0）

	// 本次变更涉及字段的快照，键见 PayloadKey*。
	Payload map[string]string `bson:"payload,omitempty" json:"payload,omitempty"`

	CreateTime int64 `bson:"create_time" json:"create_time"` // Unix ms
}

func (RelationChange) GetTableName() string { return "relation_change" }

const (
	PayloadKeyNickname = "nickname"
	PayloadKeyFaceURL  = "face_url"
	PayloadKeyRemark   = "remark"
)

// InfoSnapshot 是 Payload 的类型化视图。
type InfoSnapshot struct {
	Nickname string `json:"nickname"`
	FaceURL  string `json:"face_url"`
	Remark   string `json:"remark"`
}

// DecodeInfoSnapshot 把变更记录携带的字段快照解码成类型化视图，
// 同步客户端按 Kind 取用其中的对应字段。
func (c *RelationChange) DecodeInfoSnapshot() (*InfoSnapshot, error) {
	if c.Payload == nil {
		return &InfoSnapshot{}, nil
	}
	return decode.DecodeStringMap[InfoSnapshot](c.Payload)
}

const (
	RelationChangeFieldOwnerUserID = "owner_user_id"
	RelationChangeFieldVersion     = "version"
	RelationChangeFieldTarget      = "target_user_id"
	RelationChangeFieldKind        = "kind"
	RelationChangeFieldFlags       = "flags"
	RelationChangeFieldPayload     = "payload"
	RelationChangeFieldCreateTime  = "create_time"
)
