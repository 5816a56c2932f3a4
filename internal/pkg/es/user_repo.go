package es

import (
	"context"
	"errors"
	log "log/slog"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/goccy/go-json"
)

type UserRepo interface {
	GetUser(ctx context.Context, id uint64) (*UserES, error)
}

type UserRepoImpl struct {
}

func NewUserRepo() UserRepo {
	return &UserRepoImpl{}
}

// GetUser 按文档ID查询用户画像，不存在返回 nil
func (s *UserRepoImpl) GetUser(ctx context.Context, id uint64) (*UserES, error) {
	docID := strconv.FormatUint(id, 10)

	res, err := Client.Get(UserIndex, docID).Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) {
			if e.Status == NotFoundCode {
				return nil, nil
			}
		}
		return nil, err
	}

	if !res.Found {
		return nil, nil
	}

	var user UserES
	if err = json.Unmarshal(res.Source_, &user); err != nil {
		log.WarnContext(ctx, "failed to decode user document", "id", id, "err", err)
		return nil, err
	}
	return &user, nil
}
