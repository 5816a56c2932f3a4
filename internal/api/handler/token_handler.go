package handler

import (
	"Herald/internal/api/dto"
	"Herald/internal/pkg/response"
	"Herald/internal/service"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	tokenService service.TokenService
}

func NewTokenHandler(s service.TokenService) *TokenHandler {
	return &TokenHandler{
		tokenService: s,
	}
}

// Register 注册/刷新设备令牌
func (h *TokenHandler) Register(c *gin.Context) {
	var req dto.RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	userID := c.GetUint64("userID")
	bundle, err := h.tokenService.Register(c.Request.Context(), userID, req.Token, req.Platform)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.TokenBundleDTO{
		UserID:      bundle.UserID,
		TokenCount:  len(bundle.Tokens),
		Preferences: bundle.Preferences,
	})
}

// Remove 删除单个设备令牌
func (h *TokenHandler) Remove(c *gin.Context) {
	var req dto.RemoveTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	userID := c.GetUint64("userID")
	if err := h.tokenService.Remove(c.Request.Context(), userID, req.Token); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// Logout 标记当前用户所有令牌登出
func (h *TokenHandler) Logout(c *gin.Context) {
	userID := c.GetUint64("userID")
	if err := h.tokenService.Logout(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// SetPreferences 按类别设置通知开关
func (h *TokenHandler) SetPreferences(c *gin.Context) {
	var req dto.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	userID := c.GetUint64("userID")
	if err := h.tokenService.SetPreferences(c.Request.Context(), userID, req.Preferences); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
