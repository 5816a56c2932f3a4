package model

import (
	"time"
)

type Community struct {
	ID        uint64    `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	IsDeleted bool      `gorm:"type:tinyint(1);not null;default:0" json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Members []CommunityMember `gorm:"foreignKey:CommunityID;references:ID"`
}

func (Community) TableName() string {
	return "communities"
}

type CommunityMember struct {
	ID          uint64    `gorm:"primaryKey"`
	CommunityID uint64    `gorm:"not null;index:idx_community_id" json:"community_id"`
	UserID      uint64    `gorm:"not null;index:idx_member_user_id" json:"user_id"`
	IsModerator bool      `gorm:"type:tinyint(1);not null;default:0" json:"is_moderator"`
	CreatedAt   time.Time `json:"created_at"`
}

func (CommunityMember) TableName() string {
	return "community_members"
}
