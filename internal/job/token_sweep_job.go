package job

import (
	"Herald/internal/api/config"
	"Herald/internal/pkg/logger"
	"Herald/internal/pkg/mongo"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// 每轮扫描的候选上限，避免单次任务拖垮 Mongo
const sweepBatchLimit = 1000

// TokenSweepJob 清理长期不活跃用户的失效令牌。
// 活跃用户的令牌在注册时顺带清理，这里兜底处理不再注册的用户
type TokenSweepJob struct {
	bundleRepo mongo.TokenBundleRepo
}

func NewTokenSweepJob(bundleRepo mongo.TokenBundleRepo) *TokenSweepJob {
	return &TokenSweepJob{
		bundleRepo: bundleRepo,
	}
}

func (s *TokenSweepJob) Run() {
	traceID := "job-token-sweep-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	retention := time.Duration(config.Cfg.Push.TokenRetentionDays) * 24 * time.Hour
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	bundles, err := s.bundleRepo.ListStaleCandidates(ctx, cutoff, sweepBatchLimit)
	if err != nil {
		log.ErrorContext(ctx, "list stale token bundles error", "err", err)
		return
	}

	swept := 0
	for _, bundle := range bundles {
		kept := bundle.Tokens[:0]
		for _, t := range bundle.Tokens {
			if t.LoggedOut || t.LastActiveAt.Before(cutoff) {
				continue
			}
			kept = append(kept, t)
		}
		if len(kept) == len(bundle.Tokens) {
			continue
		}

		swept += len(bundle.Tokens) - len(kept)
		bundle.Tokens = kept
		bundle.UpdatedAt = time.Now()
		if err = s.bundleRepo.Save(ctx, bundle); err != nil {
			log.ErrorContext(ctx, "save swept bundle error", "userID", bundle.UserID, "err", err)
		}
	}

	log.InfoContext(ctx, "TokenSweepJob finished", "bundle_count", len(bundles), "swept_tokens", swept)
}
