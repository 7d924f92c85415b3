package cqlstore

import (
	"errors"

	"ChatSync/data/database/cql/cqlutil"
	"ChatSync/data/store"
	errs "ChatSync/tools/errs"
	"ChatSync/tools/specialerror"

	"github.com/gocql/gocql"
)

func init() {
	_ = specialerror.AddErrHandler(func(err error) *errs.CodeError {
		if errors.Is(err, gocql.ErrNotFound) {
			e := errs.ErrRecordNotFound
			return &e
		}
		return nil
	})
}

// Store 是列族库适配器：实体写与变更日志追加打进同一个 logged batch，
// 版本号用 timeuuid（自然序 = 产生序），在执行 batch 前的同一单元内生成。
type Store struct {
	sess *gocql.Session
}

var _ store.Store = (*Store)(nil)

func New(cli *cqlutil.Client) *Store {
	return &Store{sess: cli.GetSession()}
}

func mapErr(err error) error {
	return specialerror.Map(err)
}

// execBatch 执行 logged batch；batch 被协调器拒绝或超时即整体失败，
// 两张表都不会有残留写入。
func (s *Store) execBatch(b *gocql.Batch) error {
	if err := s.sess.ExecuteBatch(b); err != nil {
		return errs.ErrStorageTx.WrapMsg("logged batch failed", "cause", err.Error())
	}
	return nil
}
