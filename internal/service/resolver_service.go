package service

import (
	"Herald/internal/api/config"
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/es"
	"Herald/internal/pkg/minio"
	"Herald/internal/pkg/redis"
	"Herald/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const (
	senderCacheTTL = time.Hour
	systemSender   = "系统通知"
)

// SenderInfo 通知发送者的展示信息
type SenderInfo struct {
	Name      string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
}

// NameResolver 解析发送者昵称与头像，逐级降级，永不失败
type NameResolver interface {
	Resolve(ctx context.Context, userID uint64) *SenderInfo
}

type NameResolverImpl struct {
	userRepo repository.UserRepo
	esRepo   es.UserRepo
	identity *resty.Client
}

func NewNameResolver(userRepo repository.UserRepo, esRepo es.UserRepo) NameResolver {
	cfg := config.Cfg.Identity
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetRetryCount(1).
		SetHeader("X-Api-Key", cfg.ApiKey)

	return &NameResolverImpl{
		userRepo: userRepo,
		esRepo:   esRepo,
		identity: client,
	}
}

// Resolve 依次尝试缓存、主库、搜索索引、身份服务，
// 全部失效时用截断的用户ID兜底，保证列表里不出现空名字
func (s *NameResolverImpl) Resolve(ctx context.Context, userID uint64) *SenderInfo {
	if userID == 0 {
		return &SenderInfo{
			Name:      systemSender,
			AvatarURL: minio.GetPublicURL(consts.DefaultAvatarURL),
		}
	}

	idStr := strconv.FormatUint(userID, 10)
	cacheKey := consts.UserSimpleInfoKey + idStr

	if cached, err := redis.GetValue(ctx, cacheKey); err == nil && cached != "" {
		info := &SenderInfo{}
		if err = json.Unmarshal([]byte(cached), info); err == nil {
			return info
		}
	}

	if info := s.fromDB(ctx, userID); info != nil {
		s.cache(ctx, cacheKey, info)
		return info
	}

	if info := s.fromES(ctx, userID); info != nil {
		s.cache(ctx, cacheKey, info)
		return info
	}

	if info := s.fromIdentity(ctx, idStr); info != nil {
		s.cache(ctx, cacheKey, info)
		return info
	}

	// 兜底：截断的用户ID
	if len(idStr) > 8 {
		idStr = idStr[:8]
	}
	return &SenderInfo{
		Name:      "用户" + idStr,
		AvatarURL: minio.GetPublicURL(consts.DefaultAvatarURL),
	}
}

func (s *NameResolverImpl) fromDB(ctx context.Context, userID uint64) *SenderInfo {
	user, err := s.userRepo.GetUserById(ctx, userID)
	if err != nil {
		log.WarnContext(ctx, "resolve sender from db failed", "userID", userID, "err", err)
		return nil
	}
	if user == nil || user.Nickname == "" {
		return nil
	}
	return &SenderInfo{
		Name:      user.Nickname,
		AvatarURL: publicAvatar(user.AvatarURL),
	}
}

func (s *NameResolverImpl) fromES(ctx context.Context, userID uint64) *SenderInfo {
	user, err := s.esRepo.GetUser(ctx, userID)
	if err != nil {
		log.WarnContext(ctx, "resolve sender from es failed", "userID", userID, "err", err)
		return nil
	}
	if user == nil || user.Nickname == "" {
		return nil
	}
	return &SenderInfo{
		Name:      user.Nickname,
		AvatarURL: publicAvatar(user.AvatarURL),
	}
}

func (s *NameResolverImpl) fromIdentity(ctx context.Context, idStr string) *SenderInfo {
	info := &SenderInfo{}
	resp, err := s.identity.R().
		SetContext(ctx).
		SetResult(info).
		Get("/users/" + idStr)
	if err != nil {
		log.WarnContext(ctx, "resolve sender from identity provider failed", "userID", idStr, "err", err)
		return nil
	}
	if resp.StatusCode() != 200 || info.Name == "" {
		return nil
	}
	info.AvatarURL = publicAvatar(info.AvatarURL)
	return info
}

func (s *NameResolverImpl) cache(ctx context.Context, key string, info *SenderInfo) {
	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err = redis.SetWithExpiration(ctx, key, string(data), senderCacheTTL); err != nil {
		log.WarnContext(ctx, "cache sender info failed", "key", key, "err", err)
	}
}

// publicAvatar 对象名转公开URL，空值回退默认头像
func publicAvatar(raw string) string {
	if raw == "" {
		return minio.GetPublicURL(consts.DefaultAvatarURL)
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return minio.GetPublicURL(raw)
}
