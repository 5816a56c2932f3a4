package repository

import (
	"Herald/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type PostRepo interface {
	GetPostById(ctx context.Context, id uint64) (*model.Post, error)
	GetCommentById(ctx context.Context, id uint64) (*model.PostComment, error)
}

type PostRepoImpl struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) PostRepo {
	return &PostRepoImpl{db: db}
}

func (s *PostRepoImpl) GetPostById(ctx context.Context, id uint64) (*model.Post, error) {
	post := &model.Post{}
	result := s.db.WithContext(ctx).
		Where("is_deleted = 0").
		First(post, id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return post, nil
}

func (s *PostRepoImpl) GetCommentById(ctx context.Context, id uint64) (*model.PostComment, error) {
	comment := &model.PostComment{}
	result := s.db.WithContext(ctx).
		Where("is_deleted = 0").
		First(comment, id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return comment, nil
}
