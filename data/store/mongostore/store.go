package mongostore

import (
	"context"
	"errors"

	"ChatSync/data/database"
	"ChatSync/data/database/mgo/mongoutil"
	"ChatSync/data/database/utils/tx"
	"ChatSync/data/store"
	convmodel "ChatSync/module/conversation/model"
	groupmodel "ChatSync/module/group/model"
	relationmodel "ChatSync/module/relation/model"
	errs "ChatSync/tools/errs"
	"ChatSync/tools/specialerror"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	_ = specialerror.AddErrHandler(func(err error) *errs.CodeError {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			e := errs.ErrRecordNotFound
			return &e
		case mongo.IsDuplicateKeyError(err):
			e := errs.ErrDuplicateKey
			return &e
		}
		return nil
	})
}

// Store 是文档库适配器：实体写与变更日志追加放在同一个 session 事务里，
// 版本号用事务内 $inc 的 owner 级计数器（十进制字符串编码）。
type Store struct {
	tx tx.Tx

	relColl         *mongo.Collection
	relChangeColl   *mongo.Collection
	convColl        *mongo.Collection
	convChangeColl  *mongo.Collection
	groupColl       *mongo.Collection
	groupChangeColl *mongo.Collection
	msgColl         *mongo.Collection
	versionColl     *mongo.Collection // owner+domain 计数器
}

var _ store.Store = (*Store)(nil)

func coll(db *mongo.Database, t database.Table) *mongo.Collection {
	return db.Collection(t.GetTableName())
}

func New(cli *mongoutil.Client) *Store {
	db := cli.GetDB()
	return &Store{
		tx:              cli.GetTx(),
		relColl:         coll(db, relationmodel.Relation{}),
		relChangeColl:   coll(db, relationmodel.RelationChange{}),
		convColl:        coll(db, convmodel.Conversation{}),
		convChangeColl:  coll(db, convmodel.ConversationChange{}),
		groupColl:       coll(db, groupmodel.UserGroup{}),
		groupChangeColl: coll(db, groupmodel.GroupChange{}),
		msgColl:         coll(db, convmodel.Message{}),
		versionColl:     db.Collection("sync_version"),
	}
}

// EnsureIndexes 建唯一索引。关系行的 owner+target 唯一索引同时兜底并发
// addFriend 的检查后写入竞态（两个并发插入只会成功一个）。
func (s *Store) EnsureIndexes(ctx context.Context) error {
	uniq := options.Index().SetUnique(true)
	idx := []struct {
		coll *mongo.Collection
		keys bson.D
	}{
		{s.relColl, bson.D{{Key: relationmodel.RelationFieldOwnerUserID, Value: 1}, {Key: relationmodel.RelationFieldTargetUserID, Value: 1}}},
		{s.relChangeColl, bson.D{{Key: relationmodel.RelationChangeFieldOwnerUserID, Value: 1}, {Key: relationmodel.RelationChangeFieldVersion, Value: 1}}},
		{s.convColl, bson.D{{Key: convmodel.ConversationFieldOwnerUserID, Value: 1}, {Key: convmodel.ConversationFieldConversationID, Value: 1}}},
		{s.convChangeColl, bson.D{{Key: "owner_user_id", Value: 1}, {Key: "version", Value: 1}}},
		{s.groupColl, bson.D{{Key: groupmodel.UserGroupFieldOwnerUserID, Value: 1}, {Key: groupmodel.UserGroupFieldGroupID, Value: 1}}},
		{s.groupChangeColl, bson.D{{Key: "owner_user_id", Value: 1}, {Key: "version", Value: 1}}},
		{s.msgColl, bson.D{{Key: convmodel.MessageFieldConversationID, Value: 1}, {Key: convmodel.MessageFieldMsgID, Value: 1}}},
		{s.versionColl, bson.D{{Key: "owner_user_id", Value: 1}, {Key: "domain", Value: 1}}},
	}
	for _, it := range idx {
		_, err := it.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: it.keys, Options: uniq})
		if err != nil {
			return errs.WrapMsg(err, "create index failed", "coll", it.coll.Name())
		}
	}
	return nil
}

func mapErr(err error) error {
	return specialerror.Map(err)
}
