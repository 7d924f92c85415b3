package cqlstore

import (
	"ChatSync/tools/errs"

	"github.com/gocql/gocql"
)

// 行键设计：实体表按 owner 分区、按次级实体ID聚簇（升序），
// 游标分页直接落在聚簇范围查询上；变更表按 owner 分区、按 timeuuid 版本聚簇。
var schemaCQL = []string{
	`CREATE TABLE IF NOT EXISTS relation (
		owner_user_id  text,
		target_user_id text,
		nickname       text,
		face_url       text,
		remark         text,
		flags          int,
		create_time    bigint,
		update_time    bigint,
		PRIMARY KEY (owner_user_id, target_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS relation_change (
		owner_user_id  text,
		version        timeuuid,
		target_user_id text,
		kind           int,
		flags          int,
		payload        map<text, text>,
		create_time    bigint,
		PRIMARY KEY (owner_user_id, version)
	)`,
	`CREATE TABLE IF NOT EXISTS conversation (
		owner_user_id     text,
		conversation_id   text,
		conversation_type int,
		user_id           text,
		group_id          text,
		show_name         text,
		face_url          text,
		last_read_msg_id  bigint,
		last_msg_id       bigint,
		last_msg_text     text,
		last_msg_time     bigint,
		create_time       bigint,
		update_time       bigint,
		PRIMARY KEY (owner_user_id, conversation_id)
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_change (
		owner_user_id   text,
		version         timeuuid,
		conversation_id text,
		kind            int,
		payload         map<text, text>,
		create_time     bigint,
		PRIMARY KEY (owner_user_id, version)
	)`,
	`CREATE TABLE IF NOT EXISTS user_group (
		owner_user_id  text,
		group_id       text,
		group_name     text,
		group_face_url text,
		member_nick    text,
		join_time      bigint,
		update_time    bigint,
		PRIMARY KEY (owner_user_id, group_id)
	)`,
	`CREATE TABLE IF NOT EXISTS group_change (
		owner_user_id text,
		version       timeuuid,
		group_id      text,
		kind          int,
		payload       map<text, text>,
		create_time   bigint,
		PRIMARY KEY (owner_user_id, version)
	)`,
	`CREATE TABLE IF NOT EXISTS user_profile (
		user_id  text,
		nickname text,
		face_url text,
		PRIMARY KEY (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS message (
		conversation_id text,
		msg_id          bigint,
		send_id         text,
		content_type    int,
		content         text,
		send_time       bigint,
		PRIMARY KEY (conversation_id, msg_id)
	)`,
}

// EnsureSchema 建表（幂等），keyspace 由运维预建。
func EnsureSchema(sess *gocql.Session) error {
	for _, ddl := range schemaCQL {
		if err := sess.Query(ddl).Exec(); err != nil {
			return errs.WrapMsg(err, "create table failed", "ddl", ddl[:40])
		}
	}
	return nil
}
