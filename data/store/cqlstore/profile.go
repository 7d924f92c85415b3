package cqlstore

import (
	"context"

	"ChatSync/module/relation/model"
	errs "ChatSync/tools/errs"

	"github.com/gocql/gocql"
)

// ProfileStore 用户资料源（user_profile 表），语义同 mongostore 侧。
type ProfileStore struct {
	sess *gocql.Session
}

func NewProfileStore(sess *gocql.Session) *ProfileStore {
	return &ProfileStore{sess: sess}
}

func (p *ProfileStore) TakeProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	prof := model.UserProfile{UserID: userID}
	err := p.sess.Query(`SELECT nickname, face_url FROM user_profile WHERE user_id = ?`, userID).
		WithContext(ctx).Scan(&prof.Nickname, &prof.FaceURL)
	if err != nil {
		return nil, mapErr(err)
	}
	return &prof, nil
}

func (p *ProfileStore) UpsertProfile(ctx context.Context, prof *model.UserProfile) error {
	err := p.sess.Query(`INSERT INTO user_profile (user_id, nickname, face_url) VALUES (?, ?, ?)`,
		prof.UserID, prof.Nickname, prof.FaceURL).WithContext(ctx).Exec()
	if err != nil {
		return errs.WrapMsg(err, "upsert profile failed", "user", prof.UserID)
	}
	return nil
}
