// Package apperr 定义跨组件共享的错误分类，API 层通过 errors.Is 映射为 HTTP 状态码。
package apperr

import "errors"

var (
	// ErrConflict 邮箱已被注册。
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized 令牌缺失/无效，或凭据错误。
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBadRequest 请求中没有可更新的字段。
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound 记录不存在或不属于当前用户。
	ErrNotFound = errors.New("not found")
	// ErrStorage 持久化层失败。
	ErrStorage = errors.New("storage error")
)
