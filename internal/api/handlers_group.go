package api

import "Herald/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	TokenHandler  *handler.TokenHandler
	NoticeHandler *handler.NoticeHandler
	PushHandler   *handler.PushHandler
}
