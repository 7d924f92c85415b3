package model

// Flags 是关系位集。约定：关系行存在 ⟺ Flags != 0，
// 位全部清零的写入路径必须删除整行（见 data/store 适配器）。
type Flags int32

const (
	FlagFriend  Flags = 1 << 0 // 好友
	FlagBlocked Flags = 1 << 1 // 已拉黑
	FlagHidden  Flags = 1 << 2 // 已隐藏（仅在已拉黑时有意义）
)

func (f Flags) Has(b Flags) bool  { return f&b != 0 }
func (f Flags) With(b Flags) Flags    { return f | b }
func (f Flags) Without(b Flags) Flags { return f &^ b }

func (f Flags) IsFriend() bool  { return f.Has(FlagFriend) }
func (f Flags) IsBlocked() bool { return f.Has(FlagBlocked) }
func (f Flags) IsHidden() bool  { return f.Has(FlagHidden) }

// Relation 表示用户好友/拉黑/隐藏关系（单向存储，双向各存一条记录）。
// 以 owner_user_id + target_user_id 作为唯一索引。
type Relation struct {
	OwnerUserID  string `bson:"owner_user_id" json:"owner_user_id"`   // 拥有者用户ID（谁的关系列表）
	TargetUserID string `bson:"target_user_id" json:"target_user_id"` // 对方用户ID

	Nickname string `bson:"nickname" json:"nickname"` // 对方昵称快照
	FaceURL  string `bson:"face_url" json:"face_url"` // 对方头像快照
	Remark   string `bson:"remark" json:"remark"`     // 备注名（用户自己定义，展示时覆盖昵称）

	Flags Flags `bson:"flags" json:"flags"`

	CreateTime int64 `bson:"create_time" json:"create_time"` // 创建时间(Unix ms)
	UpdateTime int64 `bson:"update_time" json:"update_time"` // 最后一次修改时间(Unix ms)
}

func (Relation) GetTableName() string { return "relation" }

// ShowName 展示名：备注名优先于昵称。
func (r *Relation) ShowName() string {
	if r.Remark != "" {
		return r.Remark
	}
	return r.Nickname
}

const (
	RelationFieldOwnerUserID  = "owner_user_id"
	RelationFieldTargetUserID = "target_user_id"
	RelationFieldNickname     = "nickname"
	RelationFieldFaceURL      = "face_url"
	RelationFieldRemark       = "remark"
	RelationFieldFlags        = "flags"
	RelationFieldCreateTime   = "create_time"
	RelationFieldUpdateTime   = "update_time"
)
