package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PushFailureModel 终态失败记录，重试耗尽后落库供人工排查
type PushFailureModel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind      string             `bson:"kind" json:"kind"`          // 触发来源类型
	EntityID  string             `bson:"entity_id" json:"entityId"` // 触发实体ID
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	Category  string             `bson:"category" json:"category"`
	Payload   map[string]string  `bson:"payload" json:"payload"`
	Reason    string             `bson:"reason" json:"reason"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

type PushFailureRepo interface {
	Create(ctx context.Context, failure *PushFailureModel) error
}

type pushFailureRepoImpl struct {
	col *mongo.Collection
}

func NewPushFailureRepo(db *mongo.Database) PushFailureRepo {
	return &pushFailureRepoImpl{col: db.Collection("push_failures")}
}

func (s *pushFailureRepoImpl) Create(ctx context.Context, failure *PushFailureModel) error {
	_, err := s.col.InsertOne(ctx, failure)
	return err
}
