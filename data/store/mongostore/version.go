package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	errs "ChatSync/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 每个 owner 在每个域（relation/conversation/group）各有一个计数器文档，
// 在写入事务内 $inc 取号，保证并发写者拿到的版本号不乱序不重复。
const (
	verDomainRelation     = "relation"
	verDomainConversation = "conversation"
	verDomainGroup        = "group"
)

type versionDoc struct {
	OwnerUserID string `bson:"owner_user_id"`
	Domain      string `bson:"domain"`
	Seq         int64  `bson:"seq"`
}

// nextVersion 必须在事务 ctx 内调用。
func (s *Store) nextVersion(ctx context.Context, domain, ownerUserID string) (int64, error) {
	after := options.After
	res := s.versionColl.FindOneAndUpdate(ctx,
		bson.M{"owner_user_id": ownerUserID, "domain": domain},
		bson.M{"$inc": bson.M{"seq": 1}},
		&options.FindOneAndUpdateOptions{
			Upsert:         boolPtr(true),
			ReturnDocument: &after,
		},
	)
	var doc versionDoc
	if err := res.Decode(&doc); err != nil {
		return 0, errs.WrapMsg(err, "alloc version failed", "domain", domain, "owner", ownerUserID)
	}
	return doc.Seq, nil
}

func (s *Store) latestVersion(ctx context.Context, domain, ownerUserID string) (string, error) {
	var doc versionDoc
	err := s.versionColl.FindOne(ctx,
		bson.M{"owner_user_id": ownerUserID, "domain": domain},
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil // 尚无任何历史
	}
	if err != nil {
		return "", errs.WrapMsg(err, "read latest version failed", "domain", domain, "owner", ownerUserID)
	}
	return formatVersion(doc.Seq), nil
}

// 定宽零填充：字典序与数值序一致，变更集合里才能直接按 version 字符串
// 做范围查询和排序。
func formatVersion(seq int64) string {
	return fmt.Sprintf("%020d", seq)
}

// parseVersion 解析计数器版本号；格式非法或越界一律 ErrInvalidVersion，
// 绝不能静默当成“从头拉取”。
func parseVersion(v string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, errs.ErrInvalidVersion.WrapMsg("bad counter version", "version", v)
	}
	return n, nil
}

func boolPtr(b bool) *bool { return &b }
