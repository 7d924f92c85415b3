package notify

import (
	"context"
	"encoding/json"

	errs "ChatSync/tools/errs"

	"github.com/nats-io/nats.go"
)

type NatsConfig struct {
	URL           string
	SubjectPrefix string
}

func (c *NatsConfig) ValidateAndSetDefaults() error {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "chatsync.change"
	}
	return nil
}

// NatsNotifier core 模式发布，subject 按域路由：<prefix>.<domain>。
type NatsNotifier struct {
	conn   *nats.Conn
	prefix string
}

func NewNatsNotifier(cfg *NatsConfig) (*NatsNotifier, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	conn, err := nats.Connect(cfg.URL, nats.Name("chatsync-notify"))
	if err != nil {
		return nil, errs.WrapMsg(err, "nats connect failed", "url", cfg.URL)
	}
	return &NatsNotifier{conn: conn, prefix: cfg.SubjectPrefix}, nil
}

func (n *NatsNotifier) Publish(_ context.Context, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errs.WrapMsg(err, "marshal notify event failed")
	}
	subject := n.prefix + "." + ev.Domain
	if err := n.conn.Publish(subject, data); err != nil {
		return errs.WrapMsg(err, "nats publish failed", "subject", subject)
	}
	return nil
}

func (n *NatsNotifier) Close() error {
	n.conn.Close()
	return nil
}
