package dedup

import (
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/redis"
	"context"
	"time"
)

// Tracker 持久化去重标记，是并发回调之间唯一的串行化点。
// 标记写入必须是"检查即写入"的原子操作，两个近乎同时的回调
// 不允许都通过检查。
type Tracker interface {
	TryMark(ctx context.Context, key string) (bool, error)
	Unmark(ctx context.Context, key string) error
	DiffMembers(ctx context.Context, key string, current []string) ([]string, error)
	RemoveMember(ctx context.Context, key string, member string) error
}

// Key 细粒度去重键：实体 + 子元素
func Key(kind, entityID, elementID string) string {
	return consts.PushDedupKey + kind + ":" + entityID + ":" + elementID
}

// MemberKey 成员制实体的已处理集合键
func MemberKey(kind, entityID string) string {
	return consts.PushMembersDoneKey + kind + ":" + entityID
}

type RedisTracker struct {
	markerTTL time.Duration
	grace     time.Duration
	startedAt time.Time
}

func NewRedisTracker(markerTTL, grace time.Duration) *RedisTracker {
	return &RedisTracker{
		markerTTL: markerTTL,
		grace:     grace,
		startedAt: time.Now(),
	}
}

// TryMark SetNX 原子占位，返回 false 表示该事件已被处理过
func (s *RedisTracker) TryMark(ctx context.Context, key string) (bool, error) {
	return redis.SetNX(ctx, key, 1, s.markerTTL)
}

// Unmark 派发失败时回滚标记，让后续重放有机会重试
func (s *RedisTracker) Unmark(ctx context.Context, key string) error {
	return redis.DeleteKey(ctx, key)
}

// DiffMembers 对成员快照做增量计算并同步已处理集合。
// 进程启动静默期内首次观察到的实体只建立基线不通知，
// 避免订阅存量数据时的通知风暴。
func (s *RedisTracker) DiffMembers(ctx context.Context, key string, current []string) ([]string, error) {
	processed, err := redis.GetSet(ctx, key)
	if err != nil {
		return nil, err
	}

	tracked := len(processed) > 0
	if !tracked && time.Since(s.startedAt) < s.grace {
		// 静默建立基线
		if len(current) > 0 {
			if err = redis.SAdd(ctx, key, toAnySlice(current)...); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	candidates, removed := diffMembers(processed, current)

	if len(removed) > 0 {
		if err = redis.SRem(ctx, key, toAnySlice(removed)...); err != nil {
			return nil, err
		}
	}

	// 逐成员 SADD 原子占位：并发处理同一快照时
	// 每个新成员只会被一个调用方认领
	added := make([]string, 0, len(candidates))
	for _, m := range candidates {
		won, err := redis.SAddMember(ctx, key, m)
		if err != nil {
			return nil, err
		}
		if won {
			added = append(added, m)
		}
	}
	return added, nil
}

// RemoveMember 通知失败时把成员移出已处理集合，后续变更重放可再次触发
func (s *RedisTracker) RemoveMember(ctx context.Context, key string, member string) error {
	return redis.SRem(ctx, key, member)
}

func toAnySlice(members []string) []interface{} {
	res := make([]interface{}, 0, len(members))
	for _, m := range members {
		res = append(res, m)
	}
	return res
}
