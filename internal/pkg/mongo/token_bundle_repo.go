package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TokenBundleRepo interface {
	Get(ctx context.Context, userID uint64) (*TokenBundleModel, error)
	Save(ctx context.Context, bundle *TokenBundleModel) error
	ListStaleCandidates(ctx context.Context, cutoff time.Time, limit int64) ([]*TokenBundleModel, error)
}

type tokenBundleRepoImpl struct {
	col *mongo.Collection
}

func NewTokenBundleRepo(db *mongo.Database) TokenBundleRepo {
	return &tokenBundleRepoImpl{col: db.Collection("token_bundles")}
}

// Get 按用户ID查询令牌集合，不存在返回 nil
func (s *tokenBundleRepoImpl) Get(ctx context.Context, userID uint64) (*TokenBundleModel, error) {
	var bundle TokenBundleModel
	err := s.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&bundle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &bundle, nil
}

// ListStaleCandidates 查询长期未更新的令牌集合，供定时清理任务扫描。
// 最近有注册刷新的用户会顺带清理，不在候选之列
func (s *tokenBundleRepoImpl) ListStaleCandidates(ctx context.Context, cutoff time.Time, limit int64) ([]*TokenBundleModel, error) {
	cursor, err := s.col.Find(ctx,
		bson.M{"updated_at": bson.M{"$lt": cutoff}},
		options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var list []*TokenBundleModel
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Save 整体替换式落库，不存在则创建
func (s *tokenBundleRepoImpl) Save(ctx context.Context, bundle *TokenBundleModel) error {
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"_id": bundle.UserID},
		bundle,
		options.Replace().SetUpsert(true),
	)
	return err
}
