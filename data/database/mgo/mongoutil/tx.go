package mongoutil

import (
	"context"
	"errors"

	"ChatSync/data/database/utils/tx"
	errs "ChatSync/tools/errs"

	"go.mongodb.org/mongo-driver/mongo"
)

// NewMongoTx 返回基于 session 事务的 Tx；单机 mongod 不支持事务时报错，
// 需要副本集或分片集群。
func NewMongoTx(ctx context.Context, cli *mongo.Client) (tx.Tx, error) {
	mtx := &mongoTx{client: cli}
	if err := mtx.check(ctx); err != nil {
		return nil, err
	}
	return mtx, nil
}

type mongoTx struct {
	client *mongo.Client
}

func (m *mongoTx) check(ctx context.Context) error {
	sess, err := m.client.StartSession()
	if err != nil {
		return errs.WrapMsg(err, "start mongo session failed")
	}
	sess.EndSession(ctx)
	return nil
}

func (m *mongoTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := m.client.StartSession()
	if err != nil {
		return errs.WrapMsg(err, "start mongo session failed")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil {
		// 业务层主动中止的 CodeError 原样透传，只有驱动/网络层失败才归为存储事务错误。
		var codeErr errs.CodeError
		if errors.As(err, &codeErr) {
			return err
		}
		return errs.ErrStorageTx.WrapMsg("mongo transaction aborted", "cause", err.Error())
	}
	return nil
}
