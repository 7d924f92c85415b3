package tx

import "context"

// Tx 抽象一次“全有或全无”的事务执行：fn 内的所有写要么全部落盘要么全部回滚。
// MongoDB 用 session 事务实现；Cassandra 用 logged batch 实现（见各自适配器）。
type Tx interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
