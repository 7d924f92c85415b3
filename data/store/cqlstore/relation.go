package cqlstore

import (
	"context"
	"time"

	"ChatSync/data/store"
	relationmodel "ChatSync/module/relation/model"
	errs "ChatSync/tools/errs"

	"github.com/gocql/gocql"
)

const (
	takeRelationCQL = `SELECT nickname, face_url, remark, flags, create_time, update_time
		FROM relation WHERE owner_user_id = ? AND target_user_id = ?`

	listRelationFirstCQL = `SELECT target_user_id, nickname, face_url, remark, flags, create_time, update_time
		FROM relation WHERE owner_user_id = ? LIMIT ?`

	listRelationAfterCQL = `SELECT target_user_id, nickname, face_url, remark, flags, create_time, update_time
		FROM relation WHERE owner_user_id = ? AND target_user_id > ? LIMIT ?`

	upsertRelationCQL = `INSERT INTO relation
		(owner_user_id, target_user_id, nickname, face_url, remark, flags, create_time, update_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	deleteRelationCQL = `DELETE FROM relation WHERE owner_user_id = ? AND target_user_id = ?`

	insertRelationChangeCQL = `INSERT INTO relation_change
		(owner_user_id, version, target_user_id, kind, flags, payload, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	listRelationChangeCQL = `SELECT version, target_user_id, kind, flags, payload, create_time
		FROM relation_change WHERE owner_user_id = ? AND version > ? LIMIT ?`

	latestRelationVersionCQL = `SELECT version FROM relation_change
		WHERE owner_user_id = ? ORDER BY version DESC LIMIT 1`
)

func (s *Store) TakeRelation(ctx context.Context, ownerUserID, targetUserID string) (*relationmodel.Relation, error) {
	rel := relationmodel.Relation{OwnerUserID: ownerUserID, TargetUserID: targetUserID}
	err := s.sess.Query(takeRelationCQL, ownerUserID, targetUserID).WithContext(ctx).
		Scan(&rel.Nickname, &rel.FaceURL, &rel.Remark, &rel.Flags, &rel.CreateTime, &rel.UpdateTime)
	if err != nil {
		return nil, mapErr(err)
	}
	return &rel, nil
}

func (s *Store) ListRelations(ctx context.Context, ownerUserID, pageToken string, pageSize int) (*store.RelationPage, error) {
	afterID, err := store.DecodePageToken(pageToken)
	if err != nil {
		return nil, err
	}
	pageSize = store.NormalizePageSize(pageSize)

	var q *gocql.Query
	if afterID == "" {
		q = s.sess.Query(listRelationFirstCQL, ownerUserID, pageSize+1)
	} else {
		q = s.sess.Query(listRelationAfterCQL, ownerUserID, afterID, pageSize+1)
	}
	iter := q.WithContext(ctx).Iter()

	var rows []*relationmodel.Relation
	for {
		rel := relationmodel.Relation{OwnerUserID: ownerUserID}
		if !iter.Scan(&rel.TargetUserID, &rel.Nickname, &rel.FaceURL, &rel.Remark,
			&rel.Flags, &rel.CreateTime, &rel.UpdateTime) {
			break
		}
		r := rel
		rows = append(rows, &r)
	}
	if err := iter.Close(); err != nil {
		return nil, errs.WrapMsg(err, "list relations failed", "owner", ownerUserID)
	}

	page := &store.RelationPage{}
	if len(rows) > pageSize {
		page.HasMore = true
		rows = rows[:pageSize]
	}
	page.Relations = rows
	if page.HasMore && len(rows) > 0 {
		page.NextPageToken = store.EncodePageToken(rows[len(rows)-1].TargetUserID)
	}
	return page, nil
}

func (s *Store) ListFriendIDs(ctx context.Context, ownerUserID string) ([]string, error) {
	// 位过滤在协调器侧做不了，拉 owner 分区后在客户端筛
	iter := s.sess.Query(`SELECT target_user_id, flags FROM relation WHERE owner_user_id = ?`, ownerUserID).
		WithContext(ctx).Iter()

	var (
		ids    []string
		target string
		flags  relationmodel.Flags
	)
	for iter.Scan(&target, &flags) {
		if flags.IsFriend() {
			ids = append(ids, target)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, errs.WrapMsg(err, "list friend ids failed", "owner", ownerUserID)
	}
	return ids, nil
}

// ApplyRelation 把实体写与日志追加打进同一个 logged batch；
// 版本号在组 batch 的同一单元内生成。
func (s *Store) ApplyRelation(ctx context.Context, mut *store.RelationMutation) (string, error) {
	if mut == nil || mut.Change == nil {
		return "", errs.ErrArgs.WrapMsg("nil relation mutation")
	}
	if mut.Action == store.ActionUpsert && mut.Row == nil {
		return "", errs.ErrArgs.WrapMsg("upsert without row")
	}

	ver := newVersion()
	now := time.Now().UnixMilli()

	b := s.sess.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(insertRelationChangeCQL,
		mut.OwnerUserID, ver, mut.TargetUserID,
		mut.Change.Kind, mut.Change.Flags, mut.Change.Payload, now)

	switch mut.Action {
	case store.ActionUpsert:
		row := mut.Row
		createTime := row.CreateTime
		if createTime == 0 {
			createTime = now
		}
		b.Query(upsertRelationCQL,
			mut.OwnerUserID, mut.TargetUserID,
			row.Nickname, row.FaceURL, row.Remark, row.Flags, createTime, now)
	case store.ActionDelete:
		b.Query(deleteRelationCQL, mut.OwnerUserID, mut.TargetUserID)
	default:
		return "", errs.ErrArgs.WrapMsg("unknown mutation action", "action", mut.Action)
	}

	if err := s.execBatch(b); err != nil {
		return "", err
	}
	return ver.String(), nil
}

func (s *Store) RelationChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*store.RelationChangeSet, error) {
	if afterVersion == "" {
		return &store.RelationChangeSet{FullSync: true}, nil
	}
	after, err := parseVersion(afterVersion)
	if err != nil {
		return nil, err
	}
	limit = store.NormalizeChangeLimit(limit)

	iter := s.sess.Query(listRelationChangeCQL, ownerUserID, after, limit).WithContext(ctx).Iter()

	var changes []*relationmodel.RelationChange
	for {
		var ver gocql.UUID
		ch := relationmodel.RelationChange{OwnerUserID: ownerUserID}
		if !iter.Scan(&ver, &ch.TargetUserID, &ch.Kind, &ch.Flags, &ch.Payload, &ch.CreateTime) {
			break
		}
		ch.Version = ver.String()
		c := ch
		changes = append(changes, &c)
	}
	if err := iter.Close(); err != nil {
		return nil, errs.WrapMsg(err, "list relation changes failed", "owner", ownerUserID)
	}

	out := &store.RelationChangeSet{Version: afterVersion, Changes: changes}
	if len(changes) > 0 {
		out.Version = changes[len(changes)-1].Version
	}
	return out, nil
}

func (s *Store) LatestRelationVersion(ctx context.Context, ownerUserID string) (string, error) {
	var ver gocql.UUID
	err := s.sess.Query(latestRelationVersionCQL, ownerUserID).WithContext(ctx).Scan(&ver)
	if err == gocql.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", errs.WrapMsg(err, "read latest relation version failed", "owner", ownerUserID)
	}
	return ver.String(), nil
}
