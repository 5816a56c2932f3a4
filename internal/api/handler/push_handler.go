package handler

import (
	"Herald/internal/api/dto"
	"Herald/internal/pkg/response"
	"Herald/internal/service"

	"github.com/gin-gonic/gin"
)

// PushHandler 管理端手动推送入口
type PushHandler struct {
	dispatcher service.Dispatcher
}

func NewPushHandler(d service.Dispatcher) *PushHandler {
	return &PushHandler{
		dispatcher: d,
	}
}

// SendToUser 给单个用户推送
func (h *PushHandler) SendToUser(c *gin.Context) {
	var req dto.SendToUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	actorID := c.GetUint64("userID")
	result := h.dispatcher.SendToUser(c.Request.Context(), req.UserID, actorID, req.Title, req.Body, req.Category, req.Payload, "")
	response.Success(c, result)
}

// SendToCommunity 给社区全体成员广播
func (h *PushHandler) SendToCommunity(c *gin.Context) {
	var req dto.SendToCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	actorID := c.GetUint64("userID")
	result := h.dispatcher.SendToCommunity(c.Request.Context(), req.CommunityID, actorID, req.Title, req.Body, req.Category, req.Payload, req.ExcludeUserID, "")
	response.Success(c, result)
}
