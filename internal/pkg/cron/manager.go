package cron

import (
	"Herald/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine         *cron.Cron
	noticePurgeJob *job.NoticePurgeJob
	tokenSweepJob  *job.TokenSweepJob
}

func NewCronManager(noticePurgeJob *job.NoticePurgeJob, tokenSweepJob *job.TokenSweepJob) *Manager {
	return &Manager{
		engine:         cron.New(cron.WithSeconds()),
		noticePurgeJob: noticePurgeJob,
		tokenSweepJob:  tokenSweepJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob("@daily", s.noticePurgeJob); err != nil {
		return err
	}
	if _, err := s.engine.AddJob("@daily", s.tokenSweepJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()

	// 进程启动时先补跑一轮清理，弥补停机期间错过的周期
	go s.noticePurgeJob.Run()
	go s.tokenSweepJob.Run()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
