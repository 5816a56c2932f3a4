package service

import (
	"Herald/internal/api/dto"
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/fcm"
	"Herald/internal/pkg/mongo"
	"Herald/internal/pkg/redis"
	"Herald/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"
)

// 推送结果里的英文错误串是管理端契约，不做本地化
const (
	ResultNoTokens        = "No tokens found"
	ResultCategoryOff     = "Category disabled by user preference"
	ResultCommunityAbsent = "Community not found"
	ResultNoMembers       = "No members to notify"
	ResultAllFailed       = "All deliveries failed"
)

const missingFlagTTL = 7 * 24 * time.Hour

// Dispatcher 推送派发器，结果只上报不返回error，失败不阻断调用方。
// noticeID 传空串表示首次派发，正文与状态行在此创建；
// 重试时回传上次结果里的 NoticeID，同一逻辑事件只落一条正文
type Dispatcher interface {
	SendToUser(ctx context.Context, targetID, actorID uint64, title, body, category string, payload map[string]string, noticeID string) *dto.PushResult
	SendToCommunity(ctx context.Context, communityID, actorID uint64, title, body, category string, payload map[string]string, excludeUserID uint64, noticeID string) *dto.BroadcastResult
}

type DispatchServiceImpl struct {
	tokens      TokenService
	notices     NoticeService
	communities repository.CommunityRepo
	gateway     fcm.Gateway
	classify    func(error) fcm.FailureClass
	sendTimeout time.Duration
	memberDelay time.Duration
}

func NewDispatchService(
	tokens TokenService,
	notices NoticeService,
	communities repository.CommunityRepo,
	gateway fcm.Gateway,
	sendTimeoutSec int,
	memberDelayMs int,
) Dispatcher {
	return &DispatchServiceImpl{
		tokens:      tokens,
		notices:     notices,
		communities: communities,
		gateway:     gateway,
		classify:    fcm.ClassifyError,
		sendTimeout: time.Duration(sendTimeoutSec) * time.Second,
		memberDelay: time.Duration(memberDelayMs) * time.Millisecond,
	}
}

// SendToUser 单用户推送：无可用令牌直接返回，不落任何通知记录
func (s *DispatchServiceImpl) SendToUser(ctx context.Context, targetID, actorID uint64, title, body, category string, payload map[string]string, noticeID string) *dto.PushResult {
	result := &dto.PushResult{UserID: targetID}

	bundle, err := s.tokens.GetBundle(ctx, targetID)
	if err != nil {
		log.ErrorContext(ctx, "load token bundle failed", "userID", targetID, "err", err)
		result.Error = UnExpectedError.Error()
		return result
	}

	var live []mongo.DeviceToken
	if bundle != nil {
		live = bundle.LiveTokens()
	}
	if len(live) == 0 {
		s.markTokenMissing(ctx, targetID)
		result.Error = ResultNoTokens
		return result
	}

	if !PreferenceEnabled(bundle, category) {
		result.Error = ResultCategoryOff
		return result
	}

	if noticeID == "" {
		noticeID = s.notices.CreateRecord(ctx, consts.ScopeUser, targetID, actorID, title, body, category, payload)
		if err = s.notices.CreateStatus(ctx, noticeID, consts.ScopeUser, targetID, 0); err != nil {
			log.WarnContext(ctx, "create notice status failed", "userID", targetID, "noticeID", noticeID, "err", err)
		}
	}
	result.NoticeID = noticeID

	success, failure, permanent := s.sendToTokens(ctx, live, title, body, payload)
	if len(permanent) > 0 {
		if _, err = s.tokens.PruneFailed(ctx, targetID, permanent); err != nil {
			log.WarnContext(ctx, "prune failed tokens error", "userID", targetID, "err", err)
		}
	}

	result.SuccessCount = success
	result.FailureCount = failure
	result.Success = success > 0
	if !result.Success {
		result.Error = ResultAllFailed
	}
	return result
}

// SendToCommunity 社区广播：共享一条正文，逐成员派发并聚合结果。
// excludeUserID 用于跳过触发事件的成员本人
func (s *DispatchServiceImpl) SendToCommunity(ctx context.Context, communityID, actorID uint64, title, body, category string, payload map[string]string, excludeUserID uint64, noticeID string) *dto.BroadcastResult {
	result := &dto.BroadcastResult{Results: make([]*dto.PushResult, 0)}

	community, err := s.communities.GetCommunityById(ctx, communityID)
	if err != nil {
		log.ErrorContext(ctx, "load community failed", "communityID", communityID, "err", err)
		result.Error = UnExpectedError.Error()
		return result
	}
	if community == nil {
		result.Error = ResultCommunityAbsent
		return result
	}

	memberIDs, err := s.communities.GetMemberIds(ctx, communityID)
	if err != nil {
		log.ErrorContext(ctx, "load community members failed", "communityID", communityID, "err", err)
		result.Error = UnExpectedError.Error()
		return result
	}

	targets := make([]uint64, 0, len(memberIDs))
	for _, id := range memberIDs {
		if excludeUserID != 0 && id == excludeUserID {
			continue
		}
		targets = append(targets, id)
	}
	result.TotalUsers = len(targets)
	if len(targets) == 0 {
		result.Error = ResultNoMembers
		return result
	}

	// 重试时状态行已在首次派发写入，只重发不重建
	fresh := noticeID == ""
	if fresh {
		noticeID = s.notices.CreateRecord(ctx, consts.ScopeCommunity, communityID, actorID, title, body, category, payload)
	}
	result.NoticeID = noticeID

	for i, memberID := range targets {
		// 成员间插入短暂间隔，避免对网关造成突发流量
		if i > 0 && s.memberDelay > 0 {
			time.Sleep(s.memberDelay)
		}
		r := s.pushToMember(ctx, noticeID, fresh, communityID, memberID, title, body, category, payload)
		result.Results = append(result.Results, r)
		if r.Success {
			result.SentCount++
		}
	}

	result.Success = result.SentCount > 0
	if !result.Success {
		result.Error = ResultAllFailed
	}
	return result
}

func (s *DispatchServiceImpl) pushToMember(ctx context.Context, noticeID string, fresh bool, communityID, memberID uint64, title, body, category string, payload map[string]string) *dto.PushResult {
	result := &dto.PushResult{UserID: memberID}

	bundle, err := s.tokens.GetBundle(ctx, memberID)
	if err != nil {
		log.WarnContext(ctx, "load token bundle failed", "userID", memberID, "err", err)
		result.Error = UnExpectedError.Error()
		return result
	}

	var live []mongo.DeviceToken
	if bundle != nil {
		live = bundle.LiveTokens()
	}
	if len(live) == 0 {
		s.markTokenMissing(ctx, memberID)
		result.Error = ResultNoTokens
		return result
	}

	if !PreferenceEnabled(bundle, category) {
		result.Error = ResultCategoryOff
		return result
	}

	if fresh {
		if err = s.notices.CreateStatus(ctx, noticeID, consts.ScopeCommunity, memberID, communityID); err != nil {
			log.WarnContext(ctx, "create notice status failed", "userID", memberID, "noticeID", noticeID, "err", err)
		}
	}

	success, failure, permanent := s.sendToTokens(ctx, live, title, body, payload)
	if len(permanent) > 0 {
		if _, err = s.tokens.PruneFailed(ctx, memberID, permanent); err != nil {
			log.WarnContext(ctx, "prune failed tokens error", "userID", memberID, "err", err)
		}
	}

	result.SuccessCount = success
	result.FailureCount = failure
	result.Success = success > 0
	if !result.Success {
		result.Error = ResultAllFailed
	}
	return result
}

// sendToTokens 逐令牌串行发送，永久失败的令牌收集起来批量剔除
func (s *DispatchServiceImpl) sendToTokens(ctx context.Context, tokens []mongo.DeviceToken, title, body string, payload map[string]string) (success, failure int, permanent []string) {
	for _, t := range tokens {
		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		err := s.gateway.Send(sendCtx, &fcm.Message{
			Token: t.Token,
			Title: title,
			Body:  body,
			Data:  payload,
		})
		cancel()

		switch s.classify(err) {
		case fcm.FailureNone:
			success++
		case fcm.FailurePermanent:
			failure++
			permanent = append(permanent, t.Token)
			log.InfoContext(ctx, "token invalid, scheduled for prune", "platform", t.Platform, "err", err)
		default:
			failure++
			log.WarnContext(ctx, "push delivery transient failure", "platform", t.Platform, "err", err)
		}
	}
	return
}

// TerminalPush 推送结果是否为终态：成功、无令牌、类别关闭都不值得重试
func TerminalPush(r *dto.PushResult) bool {
	if r.Success {
		return true
	}
	switch r.Error {
	case ResultNoTokens, ResultCategoryOff:
		return true
	}
	return false
}

// TerminalBroadcast 广播结果是否为终态
func TerminalBroadcast(r *dto.BroadcastResult) bool {
	if r.Success {
		return true
	}
	switch r.Error {
	case ResultCommunityAbsent, ResultNoMembers:
		return true
	}
	return false
}

// markTokenMissing 记录"用户无可用令牌"，注册新令牌时清除
func (s *DispatchServiceImpl) markTokenMissing(ctx context.Context, userID uint64) {
	key := consts.PushTokenMissingKey + strconv.FormatUint(userID, 10)
	if err := redis.SetWithExpiration(ctx, key, 1, missingFlagTTL); err != nil {
		log.WarnContext(ctx, "mark token missing failed", "userID", userID, "err", err)
	}
}
