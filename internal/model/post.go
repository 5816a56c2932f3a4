package model

import (
	"time"
)

type Post struct {
	ID          uint64    `gorm:"primaryKey"`
	UserID      uint64    `gorm:"not null;index:idx_user_id" json:"user_id"`
	CommunityID uint64    `gorm:"not null;index:idx_post_community_id" json:"community_id"`
	Title       string    `gorm:"type:varchar(255)" json:"title"`
	Content     string    `gorm:"not null" json:"content"`
	IsDeleted   bool      `gorm:"type:tinyint(1);not null;default:0" json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

type PostComment struct {
	ID        uint64    `gorm:"primaryKey"`
	PostID    uint64    `gorm:"not null;index:idx_comment_post_id" json:"post_id"`
	UserID    uint64    `gorm:"not null" json:"user_id"`
	Content   string    `gorm:"not null" json:"content"`
	IsDeleted bool      `gorm:"type:tinyint(1);not null;default:0" json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostComment) TableName() string {
	return "post_comments"
}
