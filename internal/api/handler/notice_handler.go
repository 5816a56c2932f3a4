package handler

import (
	"Herald/internal/api/dto"
	"Herald/internal/pkg/response"
	"Herald/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type NoticeHandler struct {
	noticeService service.NoticeService
}

func NewNoticeHandler(s service.NoticeService) *NoticeHandler {
	return &NoticeHandler{
		noticeService: s,
	}
}

// GetNoticeList 获取通知列表
func (h *NoticeHandler) GetNoticeList(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	pageSize, _ := strconv.ParseInt(c.DefaultQuery("page_size", "10"), 10, 64)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	userID := c.GetUint64("userID")

	list, err := h.noticeService.ListForUser(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, list)
}

// GetUnreadCount 获取未读数
func (h *NoticeHandler) GetUnreadCount(c *gin.Context) {
	userID := c.GetUint64("userID")

	unread, err := h.noticeService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, unread)
}

// MarkRead 标记单条已读
func (h *NoticeHandler) MarkRead(c *gin.Context) {
	var req dto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("userID")
	notice, err := h.noticeService.MarkRead(c.Request.Context(), userID, req.StatusID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, notice)
}

// MarkAllRead 一键已读
func (h *NoticeHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetUint64("userID")
	notices, err := h.noticeService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, notices)
}

// Cleanup 手动触发过期通知清理
func (h *NoticeHandler) Cleanup(c *gin.Context) {
	var req dto.CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	deleted, err := h.noticeService.PurgeOlderThan(c.Request.Context(), req.Days)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.CleanupDTO{DeletedCount: deleted})
}
