package dto

// RegisterTokenRequest 注册/刷新设备令牌
type RegisterTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required,oneof=android ios web"`
}

// RemoveTokenRequest 显式删除设备令牌
type RemoveTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// PreferencesRequest 按类别设置通知开关
type PreferencesRequest struct {
	Preferences map[string]bool `json:"preferences" binding:"required"`
}

// TokenBundleDTO 返回给客户端的令牌集合视图
type TokenBundleDTO struct {
	UserID      uint64          `json:"userId"`
	TokenCount  int             `json:"tokenCount"`
	Preferences map[string]bool `json:"preferences"`
}
