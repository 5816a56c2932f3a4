package dto

// PushResult 单用户推送结果，Success 表示至少一台设备送达
type PushResult struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	UserID       uint64 `json:"userId,omitempty"`
	NoticeID     string `json:"noticeId,omitempty"`
	SuccessCount int    `json:"successCount"`
	FailureCount int    `json:"failureCount"`
}

// BroadcastResult 社区广播聚合结果
type BroadcastResult struct {
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	NoticeID   string        `json:"noticeId,omitempty"`
	SentCount  int           `json:"sentCount"`
	TotalUsers int           `json:"totalUsers"`
	Results    []*PushResult `json:"results"`
}

// SendToUserRequest 管理端：给单用户推送
type SendToUserRequest struct {
	UserID   uint64            `json:"userId" binding:"required"`
	Title    string            `json:"title" binding:"required"`
	Body     string            `json:"body" binding:"required"`
	Category string            `json:"category" binding:"required"`
	Payload  map[string]string `json:"payload"`
}

// SendToCommunityRequest 管理端：社区广播
type SendToCommunityRequest struct {
	CommunityID   uint64            `json:"communityId" binding:"required"`
	Title         string            `json:"title" binding:"required"`
	Body          string            `json:"body" binding:"required"`
	Category      string            `json:"category" binding:"required"`
	Payload       map[string]string `json:"payload"`
	ExcludeUserID uint64            `json:"excludeUserId"`
}
