package notify

import (
	"context"
	"time"
)

const (
	DomainRelation     = "relation"
	DomainConversation = "conversation"
	DomainGroup        = "group"
)

// Event 是一次变更日志追加的出站通知：只带坐标（owner + 版本号），
// 订阅端收到后自己走增量拉取，不在事件里携带变更内容。
type Event struct {
	Domain      string `json:"domain"`
	OwnerUserID string `json:"owner_user_id"`
	Version     string `json:"version"`
	SendTime    int64  `json:"send_time"` // Unix ms
}

func NewEvent(domain, ownerUserID, version string) *Event {
	return &Event{
		Domain:      domain,
		OwnerUserID: ownerUserID,
		Version:     version,
		SendTime:    time.Now().UnixMilli(),
	}
}

// Notifier 变更通知出口。发布失败不影响主流程，调用方只记日志。
type Notifier interface {
	Publish(ctx context.Context, ev *Event) error
	Close() error
}

// Noop 空实现，未配置消息中间件时使用。
type Noop struct{}

func (Noop) Publish(context.Context, *Event) error { return nil }
func (Noop) Close() error                          { return nil }
