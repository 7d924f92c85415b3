package errs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// New 创建一个带堆栈的普通错误，kv 为可选的上下文键值对。
func New(msg string, kv ...any) error {
	return errors.New(toString(msg, kv))
}

// Wrap 为 err 附加调用堆栈，不改变错误语义。
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

// WrapMsg 为 err 附加堆栈与上下文信息。
func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, toString(msg, kv))
}

// Unwrap 逐层剥离包装，返回最底层错误。
func Unwrap(err error) error {
	for err != nil {
		unwrap, ok := err.(interface {
			error
			Unwrap() error
		})
		if !ok {
			break
		}
		next := unwrap.Unwrap()
		if next == nil {
			return err
		}
		err = next
	}
	return err
}

func toString(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		if i > 0 || msg != "" {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprint(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(fmt.Sprint(kv[i+1]))
		}
	}
	return sb.String()
}
