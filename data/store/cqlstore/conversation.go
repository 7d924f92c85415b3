package cqlstore

import (
	"context"
	"strconv"
	"time"

	"ChatSync/data/store"
	convmodel "ChatSync/module/conversation/model"
	errs "ChatSync/tools/errs"

	"github.com/gocql/gocql"
)

const (
	takeConversationCQL = `SELECT conversation_type, user_id, group_id, show_name, face_url,
		last_read_msg_id, last_msg_id, last_msg_text, last_msg_time, create_time, update_time
		FROM conversation WHERE owner_user_id = ? AND conversation_id = ?`

	listConversationFirstCQL = `SELECT conversation_id, conversation_type, user_id, group_id, show_name, face_url,
		last_read_msg_id, last_msg_id, last_msg_text, last_msg_time, create_time, update_time
		FROM conversation WHERE owner_user_id = ? LIMIT ?`

	listConversationAfterCQL = `SELECT conversation_id, conversation_type, user_id, group_id, show_name, face_url,
		last_read_msg_id, last_msg_id, last_msg_text, last_msg_time, create_time, update_time
		FROM conversation WHERE owner_user_id = ? AND conversation_id > ? LIMIT ?`

	upsertConversationCQL = `INSERT INTO conversation
		(owner_user_id, conversation_id, conversation_type, user_id, group_id, show_name, face_url,
		 last_read_msg_id, last_msg_id, last_msg_text, last_msg_time, create_time, update_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	deleteConversationCQL = `DELETE FROM conversation WHERE owner_user_id = ? AND conversation_id = ?`

	advanceReadCQL = `UPDATE conversation SET last_read_msg_id = ?, update_time = ?
		WHERE owner_user_id = ? AND conversation_id = ?`

	insertConversationChangeCQL = `INSERT INTO conversation_change
		(owner_user_id, version, conversation_id, kind, payload, create_time)
		VALUES (?, ?, ?, ?, ?, ?)`

	listConversationChangeCQL = `SELECT version, conversation_id, kind, payload, create_time
		FROM conversation_change WHERE owner_user_id = ? AND version > ? LIMIT ?`

	latestConversationVersionCQL = `SELECT version FROM conversation_change
		WHERE owner_user_id = ? ORDER BY version DESC LIMIT 1`

	insertMessageCQL = `INSERT INTO message
		(conversation_id, msg_id, send_id, content_type, content, send_time)
		VALUES (?, ?, ?, ?, ?, ?)`

	countNewerCQL = `SELECT COUNT(*) FROM message WHERE conversation_id = ? AND msg_id > ?`

	countNewerOwnCQL = `SELECT COUNT(*) FROM message
		WHERE conversation_id = ? AND msg_id > ? AND send_id = ? ALLOW FILTERING`
)

func (s *Store) TakeConversation(ctx context.Context, ownerUserID, conversationID string) (*convmodel.Conversation, error) {
	conv := convmodel.Conversation{OwnerUserID: ownerUserID, ConversationID: conversationID}
	err := s.sess.Query(takeConversationCQL, ownerUserID, conversationID).WithContext(ctx).
		Scan(&conv.ConversationType, &conv.UserID, &conv.GroupID, &conv.ShowName, &conv.FaceURL,
			&conv.LastReadMsgID, &conv.LastMsgID, &conv.LastMsgText, &conv.LastMsgTime,
			&conv.CreateTime, &conv.UpdateTime)
	if err != nil {
		return nil, mapErr(err)
	}
	return &conv, nil
}

func (s *Store) ListConversations(ctx context.Context, ownerUserID, pageToken string, pageSize int) (*store.ConversationPage, error) {
	afterID, err := store.DecodePageToken(pageToken)
	if err != nil {
		return nil, err
	}
	pageSize = store.NormalizePageSize(pageSize)

	var q *gocql.Query
	if afterID == "" {
		q = s.sess.Query(listConversationFirstCQL, ownerUserID, pageSize+1)
	} else {
		q = s.sess.Query(listConversationAfterCQL, ownerUserID, afterID, pageSize+1)
	}
	iter := q.WithContext(ctx).Iter()

	var rows []*convmodel.Conversation
	for {
		conv := convmodel.Conversation{OwnerUserID: ownerUserID}
		if !iter.Scan(&conv.ConversationID, &conv.ConversationType, &conv.UserID, &conv.GroupID,
			&conv.ShowName, &conv.FaceURL, &conv.LastReadMsgID, &conv.LastMsgID,
			&conv.LastMsgText, &conv.LastMsgTime, &conv.CreateTime, &conv.UpdateTime) {
			break
		}
		c := conv
		rows = append(rows, &c)
	}
	if err := iter.Close(); err != nil {
		return nil, errs.WrapMsg(err, "list conversations failed", "owner", ownerUserID)
	}

	page := &store.ConversationPage{}
	if len(rows) > pageSize {
		page.HasMore = true
		rows = rows[:pageSize]
	}
	page.Conversations = rows
	if page.HasMore && len(rows) > 0 {
		page.NextPageToken = store.EncodePageToken(rows[len(rows)-1].ConversationID)
	}
	return page, nil
}

func (s *Store) ApplyConversation(ctx context.Context, mut *store.ConversationMutation) (string, error) {
	if mut == nil || mut.Change == nil {
		return "", errs.ErrArgs.WrapMsg("nil conversation mutation")
	}
	if mut.Action == store.ActionUpsert && mut.Row == nil {
		return "", errs.ErrArgs.WrapMsg("upsert without row")
	}

	ver := newVersion()
	now := time.Now().UnixMilli()

	b := s.sess.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(insertConversationChangeCQL,
		mut.OwnerUserID, ver, mut.ConversationID, mut.Change.Kind, mut.Change.Payload, now)

	switch mut.Action {
	case store.ActionUpsert:
		row := mut.Row
		createTime := row.CreateTime
		if createTime == 0 {
			createTime = now
		}
		// INSERT 即 upsert；读-改-写由上层服务在同一请求内完成
		b.Query(upsertConversationCQL,
			mut.OwnerUserID, mut.ConversationID, row.ConversationType, row.UserID, row.GroupID,
			row.ShowName, row.FaceURL, row.LastReadMsgID, row.LastMsgID, row.LastMsgText,
			row.LastMsgTime, createTime, now)
	case store.ActionDelete:
		b.Query(deleteConversationCQL, mut.OwnerUserID, mut.ConversationID)
	default:
		return "", errs.ErrArgs.WrapMsg("unknown mutation action", "action", mut.Action)
	}

	if err := s.execBatch(b); err != nil {
		return "", err
	}
	return ver.String(), nil
}

func (s *Store) MarkRead(ctx context.Context, ownerUserID, conversationID string, upToMsgID int64) (int64, string, error) {
	conv, err := s.TakeConversation(ctx, ownerUserID, conversationID)
	if err != nil {
		return 0, "", err
	}
	// 光标单调不降：不前进就不写不追加
	if upToMsgID <= conv.LastReadMsgID {
		return conv.LastReadMsgID, "", nil
	}

	ver := newVersion()
	now := time.Now().UnixMilli()

	b := s.sess.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(advanceReadCQL, upToMsgID, now, ownerUserID, conversationID)
	b.Query(insertConversationChangeCQL,
		ownerUserID, ver, conversationID, convmodel.ConversationChangeReadMessages,
		map[string]string{convmodel.ConvPayloadKeyLastRead: strconv.FormatInt(upToMsgID, 10)}, now)

	if err := s.execBatch(b); err != nil {
		return 0, "", err
	}
	return upToMsgID, ver.String(), nil
}

func (s *Store) AppendMessage(ctx context.Context, msg *convmodel.Message) error {
	if msg == nil || msg.ConversationID == "" || msg.MsgID == 0 {
		return errs.ErrArgs.WrapMsg("bad message")
	}
	err := s.sess.Query(insertMessageCQL,
		msg.ConversationID, msg.MsgID, msg.SendID, msg.ContentType, msg.Content, msg.SendTime).
		WithContext(ctx).Exec()
	if err != nil {
		return errs.WrapMsg(err, "insert message failed", "conv", msg.ConversationID)
	}
	return nil
}

func (s *Store) UnreadCount(ctx context.Context, ownerUserID, conversationID string, lastReadMsgID int64) (int64, error) {
	var total, own int64
	if err := s.sess.Query(countNewerCQL, conversationID, lastReadMsgID).
		WithContext(ctx).Scan(&total); err != nil {
		return 0, errs.WrapMsg(err, "count messages failed", "conv", conversationID)
	}
	if err := s.sess.Query(countNewerOwnCQL, conversationID, lastReadMsgID, ownerUserID).
		WithContext(ctx).Scan(&own); err != nil {
		return 0, errs.WrapMsg(err, "count own messages failed", "conv", conversationID)
	}
	return total - own, nil
}

func (s *Store) ConversationChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*store.ConversationChangeSet, error) {
	if afterVersion == "" {
		return &store.ConversationChangeSet{FullSync: true}, nil
	}
	after, err := parseVersion(afterVersion)
	if err != nil {
		return nil, err
	}
	limit = store.NormalizeChangeLimit(limit)

	iter := s.sess.Query(listConversationChangeCQL, ownerUserID, after, limit).WithContext(ctx).Iter()

	var changes []*convmodel.ConversationChange
	for {
		var ver gocql.UUID
		ch := convmodel.ConversationChange{OwnerUserID: ownerUserID}
		if !iter.Scan(&ver, &ch.ConversationID, &ch.Kind, &ch.Payload, &ch.CreateTime) {
			break
		}
		ch.Version = ver.String()
		c := ch
		changes = append(changes, &c)
	}
	if err := iter.Close(); err != nil {
		return nil, errs.WrapMsg(err, "list conversation changes failed", "owner", ownerUserID)
	}

	out := &store.ConversationChangeSet{Version: afterVersion, Changes: changes}
	if len(changes) > 0 {
		out.Version = changes[len(changes)-1].Version
	}
	return out, nil
}

func (s *Store) LatestConversationVersion(ctx context.Context, ownerUserID string) (string, error) {
	var ver gocql.UUID
	err := s.sess.Query(latestConversationVersionCQL, ownerUserID).WithContext(ctx).Scan(&ver)
	if err == gocql.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", errs.WrapMsg(err, "read latest conversation version failed", "owner", ownerUserID)
	}
	return ver.String(), nil
}
