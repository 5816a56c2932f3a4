package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid    = errors.New("参数错误")
	ErrBundleNotFound  = errors.New("用户未注册推送令牌")
	ErrTokenNotFound   = errors.New("设备令牌不存在")
	ErrNoticeNotFound  = errors.New("通知不存在")
	ErrUserNotFound    = errors.New("用户不存在")
	ErrCommunityAbsent = errors.New("社区不存在")
	UnauthorizedError  = errors.New("权限不足")
	UnExpectedError    = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:    BadRequest,
	ErrBundleNotFound:  NotFound,
	ErrTokenNotFound:   NotFound,
	ErrNoticeNotFound:  NotFound,
	ErrUserNotFound:    NotFound,
	ErrCommunityAbsent: NotFound,
	UnauthorizedError:  Unauthorized,
	UnExpectedError:    InternalServerError,
}
