package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NoticeStatusRepo interface {
	Create(ctx context.Context, status *NoticeStatusModel) (string, error)
	GetById(ctx context.Context, id primitive.ObjectID) (*NoticeStatusModel, error)
	ListByUser(ctx context.Context, userID uint64, limit, offset int64) ([]*NoticeStatusModel, error)
	ListAllByUser(ctx context.Context, userID uint64) ([]*NoticeStatusModel, error)
	CountByUser(ctx context.Context, userID uint64) (int64, error)
	DeleteById(ctx context.Context, id primitive.ObjectID) error
	DeleteByIds(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type noticeStatusRepoImpl struct {
	col *mongo.Collection
}

func NewNoticeStatusRepo(db *mongo.Database) NoticeStatusRepo {
	return &noticeStatusRepoImpl{col: db.Collection("notice_status")}
}

// Create 插入一条未读状态
func (s *noticeStatusRepoImpl) Create(ctx context.Context, status *NoticeStatusModel) (string, error) {
	res, err := s.col.InsertOne(ctx, status)
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", mongo.ErrInvalidIndexValue
	}
	return oid.Hex(), nil
}

func (s *noticeStatusRepoImpl) GetById(ctx context.Context, id primitive.ObjectID) (*NoticeStatusModel, error) {
	var status NoticeStatusModel
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// ListByUser 分页获取用户未读状态 (按时间倒序)
func (s *noticeStatusRepoImpl) ListByUser(ctx context.Context, userID uint64, limit, offset int64) ([]*NoticeStatusModel, error) {
	filter := bson.M{"user_id": userID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var list []*NoticeStatusModel
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListAllByUser 获取用户全部未读状态
func (s *noticeStatusRepoImpl) ListAllByUser(ctx context.Context, userID uint64) ([]*NoticeStatusModel, error) {
	cursor, err := s.col.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var list []*NoticeStatusModel
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CountByUser 未读总数
func (s *noticeStatusRepoImpl) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"user_id": userID})
}

func (s *noticeStatusRepoImpl) DeleteById(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *noticeStatusRepoImpl) DeleteByIds(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteOlderThan 批量清理超过保留期的未读状态
func (s *noticeStatusRepoImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
