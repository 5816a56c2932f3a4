package fcm

import (
	"Herald/internal/api/config"
	"context"
	log "log/slog"

	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// InitClient 初始化 FCM 推送客户端
func InitClient() (*Client, error) {
	cfg := config.Cfg.FCM
	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize firebase app")
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get messaging client")
	}

	log.Info("FCM client initialized successfully", "project", cfg.ProjectID)
	return &Client{messaging: msgClient}, nil
}
