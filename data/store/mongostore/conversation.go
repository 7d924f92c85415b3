package mongostore

import (
	"context"
	"strconv"
	"time"

	"ChatSync/data/store"
	convmodel "ChatSync/module/conversation/model"
	errs "ChatSync/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) TakeConversation(ctx context.Context, ownerUserID, conversationID string) (*convmodel.Conversation, error) {
	var conv convmodel.Conversation
	err := s.convColl.FindOne(ctx, bson.M{
		convmodel.ConversationFieldOwnerUserID:    ownerUserID,
		convmodel.ConversationFieldConversationID: conversationID,
	}).Decode(&conv)
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

	filter := bson.M{convmodel.ConversationFieldOwnerUserID: ownerUserID}
	if afterID != "" {
		filter[convmodel.ConversationFieldConversationID] = bson.M{"$gt": afterID}
	}
	cur, err := s.convColl.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: convmodel.ConversationFieldConversationID, Value: 1}}).
			SetLimit(int64(pageSize+1)),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "list conversations failed", "owner", ownerUserID)
	}
	var rows []*convmodel.Conversation
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errs.WrapMsg(err, "decode conversations failed", "owner", ownerUserID)
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

	var version string
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		seq, err := s.nextVersion(ctx, verDomainConversation, mut.OwnerUserID)
		if err != nil {
			return err
		}
		now := time.Now().UnixMilli()

		change := *mut.Change
		change.OwnerUserID = mut.OwnerUserID
		change.ConversationID = mut.ConversationID
		change.Version = formatVersion(seq)
		change.CreateTime = now
		if _, err := s.convChangeColl.InsertOne(ctx, &change); err != nil {
			return errs.WrapMsg(err, "append conversation change failed")
		}

		switch mut.Action {
		case store.ActionUpsert:
			row := *mut.Row
			set := bson.M{
				convmodel.ConversationFieldShowName:    row.ShowName,
				convmodel.ConversationFieldFaceURL:     row.FaceURL,
				convmodel.ConversationFieldLastMsgID:   row.LastMsgID,
				convmodel.ConversationFieldLastMsgText: row.LastMsgText,
				convmodel.ConversationFieldLastMsgTime: row.LastMsgTime,
				convmodel.ConversationFieldUpdateTime:  now,
			}
			_, err = s.convColl.UpdateOne(ctx,
				bson.M{
					convmodel.ConversationFieldOwnerUserID:    mut.OwnerUserID,
					convmodel.ConversationFieldConversationID: mut.ConversationID,
				},
				bson.M{
					"$set": set,
					// 已读光标只增不减
					"$max": bson.M{convmodel.ConversationFieldLastReadMsgID: row.LastReadMsgID},
					"$setOnInsert": bson.M{
						convmodel.ConversationFieldType:       row.ConversationType,
						convmodel.ConversationFieldUserID:     row.UserID,
						convmodel.ConversationFieldGroupID:    row.GroupID,
						convmodel.ConversationFieldCreateTime: now,
					},
				},
				options.Update().SetUpsert(true),
			)
		case store.ActionDelete:
			_, err = s.convColl.DeleteOne(ctx, bson.M{
				convmodel.ConversationFieldOwnerUserID:    mut.OwnerUserID,
				convmodel.ConversationFieldConversationID: mut.ConversationID,
			})
		default:
			return errs.ErrArgs.WrapMsg("unknown mutation action", "action", mut.Action)
		}
		if err != nil {
			return errs.WrapMsg(err, "write conversation row failed")
		}
		version = change.Version
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

// MarkRead 在事务内读-判-写：光标未前进时不追加变更记录。
func (s *Store) MarkRead(ctx context.Context, ownerUserID, conversationID string, upToMsgID int64) (int64, string, error) {
	var (
		readMsgID int64
		version   string
	)
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var conv convmodel.Conversation
		err := s.convColl.FindOne(ctx, bson.M{
			convmodel.ConversationFieldOwnerUserID:    ownerUserID,
			convmodel.ConversationFieldConversationID: conversationID,
		}).Decode(&conv)
		if err != nil {
			return mapErr(err)
		}
		if upToMsgID <= conv.LastReadMsgID {
			readMsgID = conv.LastReadMsgID
			return nil
		}

		seq, err := s.nextVersion(ctx, verDomainConversation, ownerUserID)
		if err != nil {
			return err
		}
		now := time.Now().UnixMilli()

		_, err = s.convColl.UpdateOne(ctx,
			bson.M{
				convmodel.ConversationFieldOwnerUserID:    ownerUserID,
				convmodel.ConversationFieldConversationID: conversationID,
			},
			bson.M{
				"$max": bson.M{convmodel.ConversationFieldLastReadMsgID: upToMsgID},
				"$set": bson.M{convmodel.ConversationFieldUpdateTime: now},
			},
		)
		if err != nil {
			return errs.WrapMsg(err, "advance read cursor failed")
		}

		change := convmodel.ConversationChange{
			OwnerUserID:    ownerUserID,
			Version:        formatVersion(seq),
			ConversationID: conversationID,
			Kind:           convmodel.ConversationChangeReadMessages,
			Payload: map[string]string{
				convmodel.ConvPayloadKeyLastRead: strconv.FormatInt(upToMsgID, 10),
			},
			CreateTime: now,
		}
		if _, err := s.convChangeColl.InsertOne(ctx, &change); err != nil {
			return errs.WrapMsg(err, "append read change failed")
		}
		readMsgID = upToMsgID
		version = change.Version
		return nil
	})
	if err != nil {
		return 0, "", err
	}
	return readMsgID, version, nil
}

func (s *Store) AppendMessage(ctx context.Context, msg *convmodel.Message) error {
	if msg == nil || msg.ConversationID == "" || msg.MsgID == 0 {
		return errs.ErrArgs.WrapMsg("bad message")
	}
	if _, err := s.msgColl.InsertOne(ctx, msg); err != nil {
		return mapErr(err)
	}
	return nil
}

// UnreadCount 推导未读：光标之后的消息总数减去其中 owner 自己发的。
// 不维护可变计数器，规避“新消息”与“标记已读”并发时的竞态。
func (s *Store) UnreadCount(ctx context.Context, ownerUserID, conversationID string, lastReadMsgID int64) (int64, error) {
	newer := bson.M{
		convmodel.MessageFieldConversationID: conversationID,
		convmodel.MessageFieldMsgID:          bson.M{"$gt": lastReadMsgID},
	}
	total, err := s.msgColl.CountDocuments(ctx, newer)
	if err != nil {
		return 0, errs.WrapMsg(err, "count messages failed", "conv", conversationID)
	}
	newer[convmodel.MessageFieldSendID] = ownerUserID
	own, err := s.msgColl.CountDocuments(ctx, newer)
	if err != nil {
		return 0, errs.WrapMsg(err, "count own messages failed", "conv", conversationID)
	}
	return total - own, nil
}

func (s *Store) ConversationChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*store.ConversationChangeSet, error) {
	if afterVersion == "" {
		return &store.ConversationChangeSet{FullSync: true}, nil
	}
	seq, err := parseVersion(afterVersion)
	if err != nil {
		return nil, err
	}
	limit = store.NormalizeChangeLimit(limit)

	cur, err := s.convChangeColl.Find(ctx,
		bson.M{
			"owner_user_id": ownerUserID,
			"version":       bson.M{"$gt": formatVersion(seq)},
		},
		options.Find().
			SetSort(bson.D{{Key: "version", Value: 1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "list conversation changes failed", "owner", ownerUserID)
	}
	var changes []*convmodel.ConversationChange
	if err := cur.All(ctx, &changes); err != nil {
		return nil, errs.WrapMsg(err, "decode conversation changes failed", "owner", ownerUserID)
	}

	out := &store.ConversationChangeSet{Version: afterVersion, Changes: changes}
	if len(changes) > 0 {
		out.Version = changes[len(changes)-1].Version
	}
	return out, nil
}

func (s *Store) LatestConversationVersion(ctx context.Context, ownerUserID string) (string, error) {
	return s.latestVersion(ctx, verDomainConversation, ownerUserID)
}
