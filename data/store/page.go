package store

import (
	"encoding/base64"

	"ChatSync/tools/errs"
)

// 分页游标 = 上一页最后一行的自然键（base64 包一层，保持对外不透明）。
// 续页条件是排他的：id > 游标。

func EncodePageToken(lastID string) string {
	if lastID == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(lastID))
}

// DecodePageToken 解析游标；空串表示第一页。无法解析时报 ErrInvalidPageToken，
// 绝不能退化成“从头开始”。
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(b) == 0 {
		return "", errs.ErrInvalidPageToken.WrapMsg("bad page token", "token", token)
	}
	return string(b), nil
}

// NormalizePageSize 收敛页大小：非正取默认值，超限取上限。
func NormalizePageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// NormalizeChangeLimit 收敛变更拉取条数。
func NormalizeChangeLimit(n int) int {
	if n <= 0 || n > MaxChangeLimit {
		return MaxChangeLimit
	}
	return n
}
