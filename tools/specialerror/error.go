package specialerror

import (
	"errors"

	errs "ChatSync/tools/errs"
)

// handlers 把存储驱动的哨兵错误（如 mongo.ErrNoDocuments、gocql.ErrNotFound）
// 翻译成业务 CodeError；由各适配器在 init 时注册。
var handlers []func(err error) *errs.CodeError

func AddErrHandler(h func(err error) *errs.CodeError) error {
	if h == nil {
		return errs.New("nil handler")
	}
	handlers = append(handlers, h)
	return nil
}

// Map 返回 err 对应的业务错误；没有任何 handler 命中时原样返回。
func Map(err error) error {
	if err == nil {
		return nil
	}
	var codeErr errs.CodeError
	if errors.As(err, &codeErr) {
		return err
	}
	for _, h := range handlers {
		if ce := h(err); ce != nil {
			return ce.WithDetail(err.Error()).Wrap()
		}
	}
	return err
}

func ErrCode(err error) (int, bool) {
	var codeErr errs.CodeError
	if errors.As(errs.Unwrap(err), &codeErr) {
		return codeErr.Code, true
	}
	return 0, false
}
