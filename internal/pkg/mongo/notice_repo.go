package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type NoticeRepo interface {
	Create(ctx context.Context, notice *NoticeModel) (string, error)
	GetByIds(ctx context.Context, ids []primitive.ObjectID) ([]*NoticeModel, error)
	ExistsByEntity(ctx context.Context, entityID string) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type noticeRepoImpl struct {
	col *mongo.Collection
}

// NewUserNoticeRepo 用户范围通知正文
func NewUserNoticeRepo(db *mongo.Database) NoticeRepo {
	return &noticeRepoImpl{col: db.Collection("user_notices")}
}

// NewCommunityNoticeRepo 社区范围通知正文
func NewCommunityNoticeRepo(db *mongo.Database) NoticeRepo {
	return &noticeRepoImpl{col: db.Collection("community_notices")}
}

// Create 插入通知正文，返回生成的文档ID
func (s *noticeRepoImpl) Create(ctx context.Context, notice *NoticeModel) (string, error) {
	res, err := s.col.InsertOne(ctx, notice)
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", mongo.ErrInvalidIndexValue
	}
	return oid.Hex(), nil
}

// GetByIds 批量拉取通知正文
func (s *noticeRepoImpl) GetByIds(ctx context.Context, ids []primitive.ObjectID) ([]*NoticeModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var list []*NoticeModel
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ExistsByEntity 实体级粗粒度去重：是否已有引用该实体的通知
func (s *noticeRepoImpl) ExistsByEntity(ctx context.Context, entityID string) (bool, error) {
	count, err := s.col.CountDocuments(ctx, bson.M{"payload." + PayloadEntityKey: entityID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteOlderThan 批量清理过期通知正文
func (s *noticeRepoImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
