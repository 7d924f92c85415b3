package cqlutil

import (
	"time"

	"ChatSync/tools/errs"

	"github.com/gocql/gocql"
)

// Config represents the Cassandra/ScyllaDB configuration.
type Config struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	Consistency string // ONE/QUORUM/LOCAL_QUORUM...
	Timeout     time.Duration
	MaxRetry    int
}

const (
	defaultTimeout  = 5 * time.Second
	defaultMaxRetry = 3
)

// ValidateAndSetDefaults validates the configuration and sets default values.
func (c *Config) ValidateAndSetDefaults() error {
	if len(c.Hosts) == 0 {
		return errs.Wrap(errs.New("cassandra hosts are required"))
	}
	if c.Keyspace == "" {
		return errs.Wrap(errs.New("keyspace is required"))
	}
	if c.Consistency == "" {
		c.Consistency = "QUORUM"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = defaultMaxRetry
	}
	return nil
}

type Client struct {
	session *gocql.Session
}

func (c *Client) GetSession() *gocql.Session {
	return c.session
}

func (c *Client) Close() {
	if c.session != nil {
		c.session.Close()
	}
}

// NewCassandra initializes a new Cassandra session.
func NewCassandra(config *Config) (*Client, error) {
	if err := config.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Timeout = config.Timeout
	cluster.Consistency = gocql.ParseConsistency(config.Consistency)
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: config.MaxRetry}
	if config.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	var (
		sess *gocql.Session
		err  error
	)
	for i := 0; i < config.MaxRetry; i++ {
		sess, err = cluster.CreateSession()
		if err == nil {
			break
		}
		time.Sleep(time.Second / 2)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "failed to connect to Cassandra", "Hosts", config.Hosts, "Keyspace", config.Keyspace)
	}
	return &Client{session: sess}, nil
}
