package model

const (
	UserRoleHuman int32 = 1
	UserRoleBot   int32 = 2
)

// User 账号主档。Account 创建后不可变。
type User struct {
	UserID     string `bson:"user_id" json:"user_id"`
	Account    string `bson:"account" json:"account"`
	Role       int32  `bson:"role" json:"role"`     // 1=人类，2=机器人
	Status     int32  `bson:"status" json:"status"` // 0=正常，1=禁用
	CreateTime int64  `bson:"create_time" json:"create_time"`
}

func (User) GetTableName() string { return "user" }

// UserProfile 用户可变资料，关系快照的数据来源。
type UserProfile struct {
	UserID   string `bson:"user_id" json:"user_id"`
	Nickname string `bson:"nickname" json:"nickname"`
	FaceURL  string `bson:"face_url" json:"face_url"`
}

func (UserProfile) GetTableName() string { return "user_profile" }
