package wire

import (
	"Herald/internal/api"
	"Herald/internal/api/config"
	"Herald/internal/api/handler"
	"Herald/internal/job"
	"Herald/internal/pkg/cron"
	"Herald/internal/pkg/dedup"
	"Herald/internal/pkg/es"
	"Herald/internal/pkg/fcm"
	"Herald/internal/pkg/kafka"
	pkgmongo "Herald/internal/pkg/mongo"
	"Herald/internal/repository"
	"Herald/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, mongoDB *mongodriver.Database, gateway fcm.Gateway, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	communityRepo := repository.NewCommunityRepo(db)
	postRepo := repository.NewPostRepo(db)

	bundleRepo := pkgmongo.NewTokenBundleRepo(mongoDB)
	userNoticeRepo := pkgmongo.NewUserNoticeRepo(mongoDB)
	communityNoticeRepo := pkgmongo.NewCommunityNoticeRepo(mongoDB)
	statusRepo := pkgmongo.NewNoticeStatusRepo(mongoDB)
	failureRepo := pkgmongo.NewPushFailureRepo(mongoDB)

	userESRepo := es.NewUserRepo()

	tracker := dedup.NewRedisTracker(
		time.Duration(cfg.Watcher.MarkerTTLHours)*time.Hour,
		time.Duration(cfg.Watcher.StartupGrace)*time.Second,
	)

	resolver := service.NewNameResolver(userRepo, userESRepo)
	tokenService := service.NewTokenService(bundleRepo, cfg.Push.TokenLimit, cfg.Push.TokenRetentionDays)
	noticeService := service.NewNoticeService(userNoticeRepo, communityNoticeRepo, statusRepo, resolver)
	dispatcher := service.NewDispatchService(tokenService, noticeService, communityRepo, gateway,
		cfg.Push.SendTimeout, cfg.Push.MemberDelayMs)

	handlers := &api.HandlersGroup{
		TokenHandler:  handler.NewTokenHandler(tokenService),
		NoticeHandler: handler.NewNoticeHandler(noticeService),
		PushHandler:   handler.NewPushHandler(dispatcher),
	}

	router := api.SetupRouter(handlers)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, dispatcher, noticeService, tracker, failureRepo, postRepo, communityRepo)
	if err != nil {
		return nil, err
	}

	cronMgr := cron.NewCronManager(
		job.NewNoticePurgeJob(noticeService),
		job.NewTokenSweepJob(bundleRepo),
	)

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
	}, nil
}
