package model

type GroupChangeKind int32

const (
	GroupChangeJoin       GroupChangeKind = 1
	GroupChangeQuit       GroupChangeKind = 2
	GroupChangeMemberInfo GroupChangeKind = 3 // 群内昵称/群资料快照刷新
)

// GroupChange 群成员关系变更日志，按成员 owner 追加。
type GroupChange struct {
	OwnerUserID string          `bson:"owner_user_id" json:"owner_user_id"`
	Version     string          `bson:"version" json:"version"`
	GroupID     string          `bson:"group_id" json:"group_id"`
	Kind        GroupChangeKind `bson:"kind" json:"kind"`

	Payload map[string]string `bson:"payload,omitempty" json:"payload,omitempty"`

	CreateTime int64 `bson:"create_time" json:"create_time"`
}

func (GroupChange) GetTableName() string { return "group_change" }

const (
	GroupPayloadKeyGroupName  = "group_name"
	GroupPayloadKeyFaceURL    = "group_face_url"
	GroupPayloadKeyMemberNick = "member_nick"
)
