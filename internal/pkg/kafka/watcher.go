package kafka

import (
	"Herald/internal/api/config"
	"Herald/internal/pkg/dedup"
	"Herald/internal/pkg/mongo"
	"Herald/internal/repository"
	"Herald/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
)

// Spec 描述一个变更监听器：监听哪张表、如何把行变更翻译成通知
type Spec struct {
	Name   string // 监听器名，兼作去重键前缀与日志标识
	Table  string
	Handle func(ctx context.Context, w *Watcher, msg *CanalMessage) error
}

// Notification 一次待派发的通知
type Notification struct {
	EntityID  string // 去重实体ID
	ElementID string // 去重子元素，实体级通知与 EntityID 相同
	ActorID   uint64
	Title     string
	Body      string
	Category  string
	Payload   map[string]string
}

// Watcher 通用变更监听器，八类事件共享同一条
// 解析-去重-派发管线，差异全部收敛在 Spec.Handle 里
type Watcher struct {
	spec          Spec
	dispatcher    service.Dispatcher
	notices       service.NoticeService
	tracker       dedup.Tracker
	failures      mongo.PushFailureRepo
	postRepo      repository.PostRepo
	communityRepo repository.CommunityRepo
	recencyWindow time.Duration
	retries       int
	retryDelay    time.Duration
}

func NewWatcher(
	spec Spec,
	dispatcher service.Dispatcher,
	notices service.NoticeService,
	tracker dedup.Tracker,
	failures mongo.PushFailureRepo,
	postRepo repository.PostRepo,
	communityRepo repository.CommunityRepo,
	cfg config.WatcherConfig,
) *Watcher {
	return &Watcher{
		spec:          spec,
		dispatcher:    dispatcher,
		notices:       notices,
		tracker:       tracker,
		failures:      failures,
		postRepo:      postRepo,
		communityRepo: communityRepo,
		recencyWindow: time.Duration(cfg.RecencyWindow) * time.Second,
		retries:       cfg.BroadcastRetries,
		retryDelay:    time.Duration(cfg.BroadcastDelayMs) * time.Millisecond,
	}
}

func (w *Watcher) Setup(sarama.ConsumerGroupSession) error {
	log.Info(w.spec.Name + " watcher setup")
	return nil
}

func (w *Watcher) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info(w.spec.Name + " watcher cleanup")
	return nil
}

func (w *Watcher) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info(w.spec.Name + " watcher consume claim")
	err := pullMessageBatch(session, claim, w.logic)
	if err != nil {
		log.Error(w.spec.Name+" watcher process batch error", "err", err)
		return err
	}
	return nil
}

func (w *Watcher) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, w.spec.Table)
	if err != nil {
		// 格式不符的消息直接丢弃，返回错误会让批处理无限重试
		return nil
	}

	if !w.fresh(canalMsg) {
		log.DebugContext(ctx, "stale change dropped", "watcher", w.spec.Name, "es", canalMsg.ES)
		return nil
	}

	return w.spec.Handle(ctx, w, canalMsg)
}

// fresh 新鲜度窗口：历史重放产生的旧变更不触发推送
func (w *Watcher) fresh(msg *CanalMessage) bool {
	if w.recencyWindow <= 0 {
		return true
	}
	return time.Since(time.UnixMilli(msg.ES)) <= w.recencyWindow
}

// NotifyUser 细粒度去重后向单用户派发。
// 标记写入先于去重查询与发送，两个并发回调只有一个能通过；
// 重试耗尽时回滚标记并落终态失败记录。
func (w *Watcher) NotifyUser(ctx context.Context, n *Notification, targetID uint64) error {
	key := dedup.Key(w.spec.Name, n.EntityID, n.ElementID)
	marked, err := w.tracker.TryMark(ctx, key)
	if err != nil {
		return err
	}
	if !marked {
		return nil
	}

	if w.entityDuplicate(ctx, n) {
		return nil
	}

	// 重试复用首次派发创建的正文，一个逻辑事件只落一条通知
	noticeID := ""
	for attempt := 0; ; attempt++ {
		result := w.dispatcher.SendToUser(ctx, targetID, n.ActorID, n.Title, n.Body, n.Category, n.Payload, noticeID)
		noticeID = result.NoticeID
		if service.TerminalPush(result) {
			if !result.Success {
				log.InfoContext(ctx, "push skipped", "watcher", w.spec.Name, "userID", targetID, "reason", result.Error)
			}
			return nil
		}
		if attempt >= w.retries {
			w.rollback(ctx, key)
			w.recordFailure(ctx, n, result.Error)
			return nil
		}
		time.Sleep(w.retryDelay)
	}
}

// Broadcast 社区级广播，整体重试，部分成员失败不回滚
func (w *Watcher) Broadcast(ctx context.Context, n *Notification, communityID, excludeUserID uint64) error {
	key := dedup.Key(w.spec.Name, n.EntityID, n.ElementID)
	marked, err := w.tracker.TryMark(ctx, key)
	if err != nil {
		return err
	}
	if !marked {
		return nil
	}

	if w.entityDuplicate(ctx, n) {
		return nil
	}

	noticeID := ""
	for attempt := 0; ; attempt++ {
		result := w.dispatcher.SendToCommunity(ctx, communityID, n.ActorID, n.Title, n.Body, n.Category, n.Payload, excludeUserID, noticeID)
		noticeID = result.NoticeID
		if service.TerminalBroadcast(result) {
			if result.Success {
				log.InfoContext(ctx, "broadcast delivered", "watcher", w.spec.Name,
					"communityID", communityID, "sent", result.SentCount, "total", result.TotalUsers)
			} else {
				log.InfoContext(ctx, "broadcast skipped", "watcher", w.spec.Name,
					"communityID", communityID, "reason", result.Error)
			}
			return nil
		}
		if attempt >= w.retries {
			w.rollback(ctx, key)
			w.recordFailure(ctx, n, result.Error)
			return nil
		}
		time.Sleep(w.retryDelay)
	}
}

// NotifyJoinedMembers 成员快照增量处理：集合差分即去重，
// 新成员逐个触发通知，失败的成员移出集合等待重放
func (w *Watcher) NotifyJoinedMembers(ctx context.Context, entityID string, current []string, build func(member string) (*Notification, uint64)) error {
	memberKey := dedup.MemberKey(w.spec.Name, entityID)
	added, err := w.tracker.DiffMembers(ctx, memberKey, current)
	if err != nil {
		return err
	}

	for _, member := range added {
		n, targetID := build(member)
		if n == nil || targetID == 0 {
			continue
		}
		w.notifyMember(ctx, memberKey, member, n, targetID)
	}
	return nil
}

func (w *Watcher) notifyMember(ctx context.Context, memberKey, member string, n *Notification, targetID uint64) {
	noticeID := ""
	for attempt := 0; ; attempt++ {
		result := w.dispatcher.SendToUser(ctx, targetID, n.ActorID, n.Title, n.Body, n.Category, n.Payload, noticeID)
		noticeID = result.NoticeID
		if service.TerminalPush(result) {
			if !result.Success {
				log.InfoContext(ctx, "member push skipped", "watcher", w.spec.Name, "member", member, "reason", result.Error)
			}
			return
		}
		if attempt >= w.retries {
			if err := w.tracker.RemoveMember(ctx, memberKey, member); err != nil {
				log.WarnContext(ctx, "remove member from processed set failed", "key", memberKey, "member", member, "err", err)
			}
			w.recordFailure(ctx, n, result.Error)
			return
		}
		time.Sleep(w.retryDelay)
	}
}

// entityDuplicate 实体级粗粒度去重：已有引用同一实体的通知正文则跳过。
// 查询失败按未重复处理，细粒度标记仍然兜底
func (w *Watcher) entityDuplicate(ctx context.Context, n *Notification) bool {
	entityID := n.Payload[mongo.PayloadEntityKey]
	if entityID == "" || n.ElementID != n.EntityID {
		return false
	}

	exists, err := w.notices.ExistsForEntity(ctx, entityID)
	if err != nil {
		log.WarnContext(ctx, "entity dedup query failed", "watcher", w.spec.Name, "entityID", entityID, "err", err)
		return false
	}
	if exists {
		log.InfoContext(ctx, "entity already notified, skipped", "watcher", w.spec.Name, "entityID", entityID)
	}
	return exists
}

func (w *Watcher) rollback(ctx context.Context, key string) {
	if err := w.tracker.Unmark(ctx, key); err != nil {
		log.WarnContext(ctx, "unmark dedup key failed", "key", key, "err", err)
	}
}

// recordFailure 重试耗尽后落终态失败，供人工排查与补发
func (w *Watcher) recordFailure(ctx context.Context, n *Notification, reason string) {
	failure := &mongo.PushFailureModel{
		Kind:      w.spec.Name,
		EntityID:  n.EntityID,
		Title:     n.Title,
		Body:      n.Body,
		Category:  n.Category,
		Payload:   n.Payload,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	if err := w.failures.Create(ctx, failure); err != nil {
		log.ErrorContext(ctx, "record push failure error", "watcher", w.spec.Name, "entityID", n.EntityID, "err", err)
	}
	log.WarnContext(ctx, "push retries exhausted", "watcher", w.spec.Name, "entityID", n.EntityID, "reason", reason)
}
