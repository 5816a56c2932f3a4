package service

import (
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"Herald/internal/pkg/redis"
	"context"
	log "log/slog"
	"strconv"
	"time"
)

type TokenService interface {
	Register(ctx context.Context, userID uint64, token, platform string) (*mongo.TokenBundleModel, error)
	GetBundle(ctx context.Context, userID uint64) (*mongo.TokenBundleModel, error)
	SetPreferences(ctx context.Context, userID uint64, prefs map[string]bool) error
	Logout(ctx context.Context, userID uint64) error
	Remove(ctx context.Context, userID uint64, token string) error
	PruneFailed(ctx context.Context, userID uint64, failedTokens []string) (*mongo.TokenBundleModel, error)
}

type TokenServiceImpl struct {
	bundleRepo mongo.TokenBundleRepo
	tokenLimit int
	retention  time.Duration
}

func NewTokenService(bundleRepo mongo.TokenBundleRepo, tokenLimit int, retentionDays int) TokenService {
	return &TokenServiceImpl{
		bundleRepo: bundleRepo,
		tokenLimit: tokenLimit,
		retention:  time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Register 幂等注册设备令牌。
// 已存在则刷新活跃时间并清除登出标记；新令牌在清理过期令牌后追加，
// 超出上限时淘汰创建最早的一个。
func (s *TokenServiceImpl) Register(ctx context.Context, userID uint64, token, platform string) (*mongo.TokenBundleModel, error) {
	bundle, err := s.bundleRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if bundle == nil {
		// 首次注册，惰性创建，偏好默认全开（缺省键即开启）
		bundle = &mongo.TokenBundleModel{
			UserID:      userID,
			Tokens:      make([]mongo.DeviceToken, 0, 1),
			Preferences: make(map[string]bool),
		}
	}

	s.cleanupStale(bundle, now)

	found := false
	for i := range bundle.Tokens {
		if bundle.Tokens[i].Token == token {
			bundle.Tokens[i].LastActiveAt = now
			bundle.Tokens[i].LoggedOut = false
			bundle.Tokens[i].Platform = platform
			found = true
			break
		}
	}

	if !found {
		if len(bundle.Tokens) >= s.tokenLimit {
			s.evictOldest(bundle)
		}
		bundle.Tokens = append(bundle.Tokens, mongo.DeviceToken{
			Token:        token,
			Platform:     platform,
			CreatedAt:    now,
			LastActiveAt: now,
		})
	}

	bundle.UpdatedAt = now
	if err = s.bundleRepo.Save(ctx, bundle); err != nil {
		return nil, err
	}

	// 清除"无可用令牌"标记，后续推送恢复正常
	if err = redis.DeleteKey(ctx, consts.PushTokenMissingKey+strconv.FormatUint(userID, 10)); err != nil {
		log.WarnContext(ctx, "failed to clear missing token flag", "userID", userID, "err", err)
	}

	return bundle, nil
}

// cleanupStale 注册时顺带清理：登出的和长期不活跃的令牌直接剔除
func (s *TokenServiceImpl) cleanupStale(bundle *mongo.TokenBundleModel, now time.Time) {
	kept := bundle.Tokens[:0]
	for _, t := range bundle.Tokens {
		if t.LoggedOut {
			continue
		}
		if now.Sub(t.LastActiveAt) > s.retention {
			continue
		}
		kept = append(kept, t)
	}
	bundle.Tokens = kept
}

// evictOldest 淘汰创建时间最早的令牌，时间相同按数组顺序
func (s *TokenServiceImpl) evictOldest(bundle *mongo.TokenBundleModel) {
	if len(bundle.Tokens) == 0 {
		return
	}
	oldest := 0
	for i := 1; i < len(bundle.Tokens); i++ {
		if bundle.Tokens[i].CreatedAt.Before(bundle.Tokens[oldest].CreatedAt) {
			oldest = i
		}
	}
	bundle.Tokens = append(bundle.Tokens[:oldest], bundle.Tokens[oldest+1:]...)
}

func (s *TokenServiceImpl) GetBundle(ctx context.Context, userID uint64) (*mongo.TokenBundleModel, error) {
	return s.bundleRepo.Get(ctx, userID)
}

// SetPreferences 合并写入给定类别的开关
func (s *TokenServiceImpl) SetPreferences(ctx context.Context, userID uint64, prefs map[string]bool) error {
	bundle, err := s.bundleRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if bundle == nil {
		return ErrBundleNotFound
	}

	if bundle.Preferences == nil {
		bundle.Preferences = make(map[string]bool, len(prefs))
	}
	for category, enabled := range prefs {
		bundle.Preferences[category] = enabled
	}

	bundle.UpdatedAt = time.Now()
	return s.bundleRepo.Save(ctx, bundle)
}

// Logout 标记所有令牌登出而非删除，下次注册可静默恢复
func (s *TokenServiceImpl) Logout(ctx context.Context, userID uint64) error {
	bundle, err := s.bundleRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if bundle == nil {
		return ErrBundleNotFound
	}

	for i := range bundle.Tokens {
		bundle.Tokens[i].LoggedOut = true
	}

	bundle.UpdatedAt = time.Now()
	return s.bundleRepo.Save(ctx, bundle)
}

// Remove 显式删除单个令牌
func (s *TokenServiceImpl) Remove(ctx context.Context, userID uint64, token string) error {
	bundle, err := s.bundleRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if bundle == nil {
		return ErrTokenNotFound
	}

	idx := -1
	for i := range bundle.Tokens {
		if bundle.Tokens[i].Token == token {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrTokenNotFound
	}

	bundle.Tokens = append(bundle.Tokens[:idx], bundle.Tokens[idx+1:]...)
	bundle.UpdatedAt = time.Now()
	return s.bundleRepo.Save(ctx, bundle)
}

// PruneFailed 投递后剔除永久失败的令牌，由派发器批量调用
func (s *TokenServiceImpl) PruneFailed(ctx context.Context, userID uint64, failedTokens []string) (*mongo.TokenBundleModel, error) {
	if len(failedTokens) == 0 {
		return nil, nil
	}

	bundle, err := s.bundleRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bundle == nil {
		return nil, nil
	}

	failedSet := make(map[string]struct{}, len(failedTokens))
	for _, t := range failedTokens {
		failedSet[t] = struct{}{}
	}

	kept := bundle.Tokens[:0]
	for _, t := range bundle.Tokens {
		if _, ok := failedSet[t.Token]; ok {
			continue
		}
		kept = append(kept, t)
	}
	bundle.Tokens = kept

	bundle.UpdatedAt = time.Now()
	if err = s.bundleRepo.Save(ctx, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}
