package job

import (
	"Herald/internal/api/config"
	"Herald/internal/pkg/logger"
	"Herald/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// NoticePurgeJob 每日清理超过保留期的通知正文与未读状态
type NoticePurgeJob struct {
	noticeService service.NoticeService
}

func NewNoticePurgeJob(noticeService service.NoticeService) *NoticePurgeJob {
	return &NoticePurgeJob{
		noticeService: noticeService,
	}
}

func (s *NoticePurgeJob) Run() {
	traceID := "job-notice-purge-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	days := config.Cfg.Push.NoticeRetentionDays
	if days <= 0 {
		return
	}

	deleted, err := s.noticeService.PurgeOlderThan(ctx, days)
	if err != nil {
		log.ErrorContext(ctx, "notice purge job error", "err", err)
		return
	}

	log.InfoContext(ctx, "NoticePurgeJob finished", "deleted_count", deleted)
}
