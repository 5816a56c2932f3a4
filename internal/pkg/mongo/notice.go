package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PayloadEntityKey 通知载荷中承载触发实体标识的键，用于实体级去重查询
const PayloadEntityKey = "entity_id"

// NoticeModel 通知正文，一次逻辑事件只落一条，按范围分集合存储
type NoticeModel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	Category  string             `bson:"category" json:"category"`   // 通知类别
	Payload   map[string]string  `bson:"payload" json:"payload"`     // 附加元数据（含 entity_id）
	ScopeID   uint64             `bson:"scope_id" json:"scopeId"`    // 用户ID或社区ID
	CreatedBy uint64             `bson:"created_by" json:"createdBy"` // 动作发起者ID (系统为0)
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// NoticeStatusModel 单个接收者的未读状态，存在即未读，已读即删除
type NoticeStatusModel struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      uint64             `bson:"user_id" json:"userId"`
	NoticeID    string             `bson:"notice_id" json:"noticeId"`
	Scope       string             `bson:"scope" json:"scope"` // user | community
	CommunityID uint64             `bson:"community_id,omitempty" json:"communityId,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}
