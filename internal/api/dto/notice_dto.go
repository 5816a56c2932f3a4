package dto

// NoticeDTO 通知列表项：状态行与正文合并后的视图
type NoticeDTO struct {
	StatusID    string            `json:"statusId"`
	NoticeID    string            `json:"noticeId"`
	Scope       string            `json:"scope"`
	CommunityID uint64            `json:"communityId,omitempty"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Category    string            `json:"category"`
	Payload     map[string]string `json:"payload"`
	SenderID    uint64            `json:"senderId"`
	SenderName  string            `json:"senderName"`
	AvatarURL   string            `json:"avatarUrl"`
	CreatedAt   string            `json:"createdAt"`
}

// NoticeUnreadDTO 未读数
type NoticeUnreadDTO struct {
	UnreadCount int64 `json:"unreadCount"`
}

// MarkReadRequest 标记单条已读
type MarkReadRequest struct {
	StatusID string `json:"statusId" binding:"required"`
}

// CleanupRequest 手动触发过期通知清理
type CleanupRequest struct {
	Days int `json:"days" binding:"required,min=1"`
}

// CleanupDTO 清理结果
type CleanupDTO struct {
	DeletedCount int64 `json:"deletedCount"`
}
