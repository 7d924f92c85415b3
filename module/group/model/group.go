package model

// UserGroup 表示“某用户的群成员关系”行：按成员视角存储，退群即删行，
// 与 relation 行遵循同一套“存在即有效”的约定。
type UserGroup struct {
	OwnerUserID string `bson:"owner_user_id" json:"owner_user_id"` // 成员用户ID
	GroupID     string `bson:"group_id" json:"group_id"`

	GroupName    string `bson:"group_name" json:"group_name"`         // 群名快照
	GroupFaceURL string `bson:"group_face_url" json:"group_face_url"` // 群头像快照
	MemberNick   string `bson:"member_nick" json:"member_nick"`       // 群内昵称

	JoinTime   int64 `bson:"join_time" json:"join_time"`     // Unix ms
	UpdateTime int64 `bson:"update_time" json:"update_time"`
}

func (UserGroup) GetTableName() string { return "user_group" }

const (
	UserGroupFieldOwnerUserID = "owner_user_id"
	UserGroupFieldGroupID     = "group_id"
	UserGroupFieldGroupName   = "group_name"
	UserGroupFieldFaceURL     = "group_face_url"
	UserGroupFieldMemberNick  = "member_nick"
	UserGroupFieldJoinTime    = "join_time"
	UserGroupFieldUpdateTime  = "update_time"
)
