package mongostore

import (
	"context"
	"time"

	"ChatSync/data/store"
	groupmodel "ChatSync/module/group/model"
	errs "ChatSync/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) TakeUserGroup(ctx context.Context, ownerUserID, groupID string) (*groupmodel.UserGroup, error) {
	var ug groupmodel.UserGroup
	err := s.groupColl.FindOne(ctx, bson.M{
		groupmodel.UserGroupFieldOwnerUserID: ownerUserID,
		groupmodel.UserGroupFieldGroupID:     groupID,
	}).Decode(&ug)
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

	filter := bson.M{groupmodel.UserGroupFieldOwnerUserID: ownerUserID}
	if afterID != "" {
		filter[groupmodel.UserGroupFieldGroupID] = bson.M{"$gt": afterID}
	}
	cur, err := s.groupColl.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: groupmodel.UserGroupFieldGroupID, Value: 1}}).
			SetLimit(int64(pageSize+1)),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "list user groups failed", "owner", ownerUserID)
	}
	var rows []*groupmodel.UserGroup
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errs.WrapMsg(err, "decode user groups failed", "owner", ownerUserID)
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

	var version string
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		seq, err := s.nextVersion(ctx, verDomainGroup, mut.OwnerUserID)
		if err != nil {
			return err
		}
		now := time.Now().UnixMilli()

		change := *mut.Change
		change.OwnerUserID = mut.OwnerUserID
		change.GroupID = mut.GroupID
		change.Version = formatVersion(seq)
		change.CreateTime = now
		if _, err := s.groupChangeColl.InsertOne(ctx, &change); err != nil {
			return errs.WrapMsg(err, "append group change failed")
		}

		switch mut.Action {
		case store.ActionUpsert:
			row := *mut.Row
			_, err = s.groupColl.UpdateOne(ctx,
				bson.M{
					groupmodel.UserGroupFieldOwnerUserID: mut.OwnerUserID,
					groupmodel.UserGroupFieldGroupID:     mut.GroupID,
				},
				bson.M{
					"$set": bson.M{
						groupmodel.UserGroupFieldGroupName:  row.GroupName,
						groupmodel.UserGroupFieldFaceURL:    row.GroupFaceURL,
						groupmodel.UserGroupFieldMemberNick: row.MemberNick,
						groupmodel.UserGroupFieldUpdateTime: now,
					},
					"$setOnInsert": bson.M{
						groupmodel.UserGroupFieldJoinTime: now,
					},
				},
				options.Update().SetUpsert(true),
			)
		case store.ActionDelete:
			_, err = s.groupColl.DeleteOne(ctx, bson.M{
				groupmodel.UserGroupFieldOwnerUserID: mut.OwnerUserID,
				groupmodel.UserGroupFieldGroupID:     mut.GroupID,
			})
		default:
			return errs.ErrArgs.WrapMsg("unknown mutation action", "action", mut.Action)
		}
		if err != nil {
			return errs.WrapMsg(err, "write user group row failed")
		}
		version = change.Version
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

func (s *Store) GroupChanges(ctx context.Context, ownerUserID, afterVersion string, limit int) (*store.GroupChangeSet, error) {
	if afterVersion == "" {
		return &store.GroupChangeSet{FullSync: true}, nil
	}
	seq, err := parseVersion(afterVersion)
	if err != nil {
		return nil, err
	}
	limit = store.NormalizeChangeLimit(limit)

	cur, err := s.groupChangeColl.Find(ctx,
		bson.M{
			"owner_user_id": ownerUserID,
			"version":       bson.M{"$gt": formatVersion(seq)},
		},
		options.Find().
			SetSort(bson.D{{Key: "version", Value: 1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "list group changes failed", "owner", ownerUserID)
	}
	var changes []*groupmodel.GroupChange
	if err := cur.All(ctx, &changes); err != nil {
		return nil, errs.WrapMsg(err, "decode group changes failed", "owner", ownerUserID)
	}

	out := &store.GroupChangeSet{Version: afterVersion, Changes: changes}
	if len(changes) > 0 {
		out.Version = changes[len(changes)-1].Version
	}
	return out, nil
}

func (s *Store) LatestGroupVersion(ctx context.Context, ownerUserID string) (string, error) {
	return s.latestVersion(ctx, verDomainGroup, ownerUserID)
}
