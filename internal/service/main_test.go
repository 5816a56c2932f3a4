package service

import (
	"Herald/internal/api/config"
	pkgredis "Herald/internal/pkg/redis"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// 单测不依赖真实 Redis：指向不可达地址，
// 业务代码里对 Redis 的旁路写入失败只记日志不影响主流程
func TestMain(m *testing.M) {
	pkgredis.Rdb = redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
		MaxRetries:  -1,
	})

	config.Cfg = &config.Config{}

	os.Exit(m.Run())
}
