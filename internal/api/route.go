package api

import (
	"Herald/internal/api/middleware"
	"Herald/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		pushGroup := apiGroup.Group("/push")
		pushGroup.Use(middleware.AuthMiddleware())
		{
			pushGroup.POST("/token", group.TokenHandler.Register)
			pushGroup.DELETE("/token", group.TokenHandler.Remove)
			pushGroup.POST("/logout", group.TokenHandler.Logout)
			pushGroup.PUT("/preferences", group.TokenHandler.SetPreferences)

			// 需要登录 & 拥有 admin 角色
			adminGroup := pushGroup.Group("/send")
			adminGroup.Use(middleware.CheckRoles("ADMIN"))
			{
				adminGroup.POST("/user", group.PushHandler.SendToUser)
				adminGroup.POST("/community", group.PushHandler.SendToCommunity)
			}
		}

		noticeGroup := apiGroup.Group("/notices")
		noticeGroup.Use(middleware.AuthMiddleware())
		{
			noticeGroup.GET("/list", group.NoticeHandler.GetNoticeList)
			noticeGroup.GET("/unread", group.NoticeHandler.GetUnreadCount)
			noticeGroup.POST("/read", group.NoticeHandler.MarkRead)
			noticeGroup.POST("/read/all", group.NoticeHandler.MarkAllRead)

			adminGroup := noticeGroup.Group("")
			adminGroup.Use(middleware.CheckRoles("ADMIN"))
			{
				adminGroup.POST("/cleanup", group.NoticeHandler.Cleanup)
			}
		}
	}

	return r
}
