package mongostore

import (
	"context"
	"time"

	"ChatSync/data/store"
	relationmodel "ChatSync/module/relation/model"
	errs "ChatSync/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) TakeRelation(ctx context.Context, ownerUserID, targetUserID string) (*relationmodel.Relation, error) {
	var rel relationmodel.Relation
	err := s.relColl.FindOne(ctx, bson.M{
		relationmodel.RelationFieldOwnerUserID:  ownerUserID,
		relationmodel.RelationFieldTargetUserID: targetUserID,
	}).Decode(&rel)
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

	filter := bson.M{relationmodel.RelationFieldOwnerUserID: ownerUserID}
	if afterID != "" {
		// 游标条件排他：target_user_id > 上一页最后一个
		filter[relationmodel.RelationFieldTargetUserID] = bson.M{"$gt": afterID}
	}
	// 多取一行探测 hasMore
	cur, err := s.relColl.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: relationmodel.RelationFieldTargetUserID, Value: 1}}).
			SetLimit(int64(pageSize+1)),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "list relations failed", "owner", ownerUserID)
	}
	var rows []*relationmodel.Relation
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errs.WrapMsg(err, "decode relations failed", "owner", ownerUserID)
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
	cur, err := s.relColl.Find(ctx,
		bson.M{
			relationmodel.RelationFieldOwnerUserID: ownerUserID,
			relationmodel.RelationFieldFlags:       bson.M{"$bitsAllSet": int64(relationmodel.FlagFriend)},
		},
		options.Find().
			SetSort(bson.D{{Key: relationmodel.RelationFieldTargetUserID, Value: 1}}).
			SetProjection(bson.M{relationmodel.RelationFieldTargetUserID: 1}),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "list friend ids failed", "owner", ownerUserID)
	}
	var rows []struct {
		TargetUserID string `bson:"target_user_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errs.WrapMsg(err, "decode friend ids failed", "owner", ownerUserID)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.TargetUserID)
	}
	return ids, nil
}

// ApplyRelation 在一个 session 事务里完成：取版本号 → 追加变更记录 → 写/删实体行。
func (s *Store) ApplyRelation(ctx context.Context, mut *store.RelationMutation) (string, error) {
	if mut == nil || mut.Change == nil {
		return "", errs.ErrArgs.WrapMsg("nil relation mutation")
	}
	if mut.Action == store.ActionUpsert && mut.Row == nil {
		return "", errs.ErrArgs.WrapMsg("upsert without row")
	}

	var version string
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		seq, err := s.nextVersion(ctx, verDomainRelation, mut.OwnerUserID)
		if err != nil {
			return err
		}
		now := time.Now().UnixMilli()

		change := *mut.Change
		change.OwnerUserID = mut.OwnerUserID
		change.TargetUserID = mut.TargetUserID
		change.Version = formatVersion(seq)
		change.CreateTime = now
		if _, err := s.relChangeColl.InsertOne(ctx, &change); err != nil {
			return errs.WrapMsg(err, "append relation change failed")
		}

		switch mut.Action {
		case store.ActionUpsert:
			row := *mut.Row
			row.UpdateTime = now
			if row.CreateTime == 0 {
				row.CreateTime = now
			}
			_, err = s.relColl.UpdateOne(ctx,
				bson.M{
					relationmodel.RelationFieldOwnerUserID:  mut.OwnerUserID,
					relationmodel.RelationFieldTargetUserID: mut.TargetUserID,
				},
				bson.M{
					"$set": bson.M{
						relationmodel.RelationFieldNickname:   row.Nickname,
						relationmodel.RelationFieldFaceURL:    row.FaceURL,
						relationmodel.RelationFieldRemark:     row.Remark,
						relationmodel.RelationFieldFlags:      row.Flags,
						relationmodel.RelationFieldUpdateTime: row.UpdateTime,
					},
					"$setOnInsert": bson.M{
						relationmodel.RelationFieldCreateTime: row.CreateTime,
					},
				},
				options.Update().SetUpsert(true),
			)
		case store.ActionDelete:
			_, err = s.relColl.DeleteOne(ctx, bson.M{
				relationmodel.RelationFieldOwnerUserID:  mut.OwnerUserID,
				relationmodel.RelationFieldTargetUserID: mut.TargetUserID,
			})
		default:
			return errs.ErrArgs.WrapMsg("unknown mutation action", "action", mut.Action)
		}
		if err != nil {
			return errs.WrapMsg(err, "write relation row failed")
		}
		version = change.Version
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

func (s *Store) RelationChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*store.RelationChangeSet, error) {
	if afterVersion == "" {
		// 变更日志不保证保留全量历史，空版本走全量列表
		return &store.RelationChangeSet{FullSync: true}, nil
	}
	seq, err := parseVersion(afterVersion)
	if err != nil {
		return nil, err
	}
	limit = store.NormalizeChangeLimit(limit)

	cur, err := s.relChangeColl.Find(ctx,
		bson.M{
			relationmodel.RelationChangeFieldOwnerUserID: ownerUserID,
			relationmodel.RelationChangeFieldVersion:     bson.M{"$gt": formatVersion(seq)},
		},
		options.Find().
			SetSort(bson.D{{Key: relationmodel.RelationChangeFieldVersion, Value: 1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "list relation changes failed", "owner", ownerUserID)
	}
	var changes []*relationmodel.RelationChange
	if err := cur.All(ctx, &changes); err != nil {
		return nil, errs.WrapMsg(err, "decode relation changes failed", "owner", ownerUserID)
	}

	out := &store.RelationChangeSet{Version: afterVersion, Changes: changes}
	if len(changes) > 0 {
		out.Version = changes[len(changes)-1].Version
	}
	return out, nil
}

func (s *Store) LatestRelationVersion(ctx context.Context, ownerUserID string) (string, error) {
	return s.latestVersion(ctx, verDomainRelation, ownerUserID)
}
