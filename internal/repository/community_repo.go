package repository

import (
	"Herald/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type CommunityRepo interface {
	GetCommunityById(ctx context.Context, id uint64) (*model.Community, error)
	GetMemberIds(ctx context.Context, communityID uint64) ([]uint64, error)
	GetModeratorIds(ctx context.Context, communityID uint64) ([]uint64, error)
}

type CommunityRepoImpl struct {
	db *gorm.DB
}

func NewCommunityRepo(db *gorm.DB) CommunityRepo {
	return &CommunityRepoImpl{db: db}
}

func (s *CommunityRepoImpl) GetCommunityById(ctx context.Context, id uint64) (*model.Community, error) {
	community := &model.Community{}
	result := s.db.WithContext(ctx).
		Where("is_deleted = 0").
		First(community, id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return community, nil
}

func (s *CommunityRepoImpl) GetMemberIds(ctx context.Context, communityID uint64) ([]uint64, error) {
	ids := make([]uint64, 0)
	result := s.db.WithContext(ctx).
		Model(&model.CommunityMember{}).
		Where("community_id = ?", communityID).
		Pluck("user_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}
	return ids, nil
}

func (s *CommunityRepoImpl) GetModeratorIds(ctx context.Context, communityID uint64) ([]uint64, error) {
	ids := make([]uint64, 0)
	result := s.db.WithContext(ctx).
		Model(&model.CommunityMember{}).
		Where("community_id = ? AND is_moderator = 1", communityID).
		Pluck("user_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}
	return ids, nil
}
