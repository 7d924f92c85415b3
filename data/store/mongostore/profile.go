package mongostore

import (
	"context"

	"ChatSync/data/database/mgo/mongoutil"
	"ChatSync/module/relation/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProfileStore 用户资料源（user_profile 集合）。
// 不属于同步门面：资料是关系/会话快照的上游，不产生变更日志。
type ProfileStore struct {
	coll *mongo.Collection
}

func NewProfileStore(cli *mongoutil.Client) (*ProfileStore, error) {
	coll := cli.GetDB().Collection(model.UserProfile{}.GetTableName())
	_, err := coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &ProfileStore{coll: coll}, nil
}

func (p *ProfileStore) TakeProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	var prof model.UserProfile
	err := p.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prof)
	if err != nil {
		return nil, mapErr(err)
	}
	return &prof, nil
}

func (p *ProfileStore) UpsertProfile(ctx context.Context, prof *model.UserProfile) error {
	filter := bson.M{"user_id": prof.UserID}
	update := bson.M{
		"$set": bson.M{
			"nickname": prof.Nickname,
			"face_url": prof.FaceURL,
		},
		"$setOnInsert": bson.M{"user_id": prof.UserID},
	}
	_, err := p.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return mapErr(err)
	}
	return nil
}
