package cqlstore

import (
	"context"
	"time"

	"ChatSync/data/store"
	groupmodel "ChatSync/module/group/model"
	errs "ChatSync/tools/errs"

	"github.com/gocql/gocql"
)

const (
	takeUserGroupCQL = `SELECT group_name, group_face_url, member_nick, join_time, update_time
		FROM user_group WHERE owner_user_id = ? AND group_id = ?`

	listUserGroupFirstCQL = `SELECT group_id, group_name, group_face_url, member_nick, join_time, update_time
		FROM user_group WHERE owner_user_id = ? LIMIT ?`

	listUserGroupAfterCQL = `SELECT group_id, group_name, group_face_url, member_nick, join_time, update_time
		FROM user_group WHERE owner_user_id = ? AND group_id > ? LIMIT ?`

	upsertUserGroupCQL = `INSERT INTO user_group
		(owner_user_id, group_id, group_name, group_face_url, member_nick, join_time, update_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	deleteUserGroupCQL = `DELETE FROM user_group WHERE owner_user_id = ? AND group_id = ?`

	insertGroupChangeCQL = `INSERT INTO group_change
		(owner_user_id, version, group_id, kind, payload, create_time)
		VALUES (?, ?, ?, ?, ?, ?)`

	listGroupChangeCQL = `SELECT version, group_id, kind, payload, create_time
		FROM group_change WHERE owner_user_id = ? AND version > ? LIMIT ?`

	latestGroupVersionCQL = `SELECT version FROM group_change
		WHERE owner_user_id = ? ORDER BY version DESC LIMIT 1`
)

func (s *Store) TakeUserGroup(ctx context.Context, ownerUserID, groupID string) (*groupmodel.UserGroup, error) {
	ug := groupmodel.UserGroup{OwnerUserID: ownerUserID, GroupID: groupID}
	err := s.sess.Query(takeUserGroupCQL, ownerUserID, groupID).WithContext(ctx).
		Scan(&ug.GroupName, &ug.GroupFaceURL, &ug.MemberNick, &ug.JoinTime, &ug.UpdateTime)
	if err != nil {
		return nil, mapErr(err)
	}
	return &ug, nil
}

func (s *Store) ListUserGroups(ctx context.Context, ownerUserID, pageToken string, pageSize int) (*store.UserGroupPage, error) {
	afterID, err := store.DecodePageToken(pageToken)
	if err != nil {
		return nil, err
	}
	pageSize = store.NormalizePageSize(pageSize)

	var q *gocql.Query
	if afterID == "" {
		q = s.sess.Query(listUserGroupFirstCQL, ownerUserID, pageSize+1)
	} else {
		q = s.sess.Query(listUserGroupAfterCQL, ownerUserID, afterID, pageSize+1)
	}
	iter := q.WithContext(ctx).Iter()

	var rows []*groupmodel.UserGroup
	for {
		ug := groupmodel.UserGroup{OwnerUserID: ownerUserID}
		if !iter.Scan(&ug.GroupID, &ug.GroupName, &ug.GroupFaceURL, &ug.MemberNick,
			&ug.JoinTime, &ug.UpdateTime) {
			break
		}
		g := ug
		rows = append(rows, &g)
	}
	if err := iter.Close(); err != nil {
		return nil, errs.WrapMsg(err, "list user groups failed", "owner", ownerUserID)
	}

	page := &store.UserGroupPage{}
	if len(rows) > pageSize {
		page.HasMore = true
		rows = rows[:pageSize]
	}
	page.Groups = rows
	if page.HasMore && len(rows) > 0 {
		page.NextPageToken = store.EncodePageToken(rows[len(rows)-1].GroupID)
	}
	return page, nil
}

func (s *Store) ApplyUserGroup(ctx context.Context, mut *store.GroupMutation) (string, error) {
	if mut == nil || mut.Change == nil {
		return "", errs.ErrArgs.WrapMsg("nil group mutation")
	}
	if mut.Action == store.ActionUpsert && mut.Row == nil {
		return "", errs.ErrArgs.WrapMsg("upsert without row")
	}

	ver := newVersion()
	now := time.Now().UnixMilli()

	b := s.sess.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(insertGroupChangeCQL,
		mut.OwnerUserID, ver, mut.GroupID, mut.Change.Kind, mut.Change.Payload, now)

	switch mut.Action {
	case store.ActionUpsert:
		row := mut.Row
		joinTime := row.JoinTime
		if joinTime == 0 {
			joinTime = now
		}
		b.Query(upsertUserGroupCQL,
			mut.OwnerUserID, mut.GroupID, row.GroupName, row.GroupFaceURL,
			row.MemberNick, joinTime, now)
	case store.ActionDelete:
		b.Query(deleteUserGroupCQL, mut.OwnerUserID, mut.GroupID)
	default:
		return "", errs.ErrArgs.WrapMsg("unknown mutation action", "action", mut.Action)
	}

	if err := s.execBatch(b); err != nil {
		return "", err
	}
	return ver.String(), nil
}

func (s *Store) GroupChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*store.GroupChangeSet, error) {
	if afterVersion == "" {
		return &store.GroupChangeSet{FullSync: true}, nil
	}
	after, err := parseVersion(afterVersion)
	if err != nil {
		return nil, err
	}
	limit = store.NormalizeChangeLimit(limit)

	iter := s.sess.Query(listGroupChangeCQL, ownerUserID, after, limit).WithContext(ctx).Iter()

	var changes []*groupmodel.GroupChange
	for {
		var ver gocql.UUID
		ch := groupmodel.GroupChange{OwnerUserID: ownerUserID}
		if !iter.Scan(&ver, &ch.GroupID, &ch.Kind, &ch.Payload, &ch.CreateTime) {
			break
		}
		ch.Version = ver.String()
		c := ch
		changes = append(changes, &c)
	}
	if err := iter.Close(); err != nil {
		return nil, errs.WrapMsg(err, "list group changes failed", "owner", ownerUserID)
	}

	out := &store.GroupChangeSet{Version: afterVersion, Changes: changes}
	if len(changes) > 0 {
		out.Version = changes[len(changes)-1].Version
	}
	return out, nil
}

func (s *Store) LatestGroupVersion(ctx context.Context, ownerUserID string) (string, error) {
	var ver gocql.UUID
	err := s.sess.Query(latestGroupVersionCQL, ownerUserID).WithContext(ctx).Scan(&ver)
	if err == gocql.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", errs.WrapMsg(err, "read latest group version failed", "owner", ownerUserID)
	}
	return ver.String(), nil
}
