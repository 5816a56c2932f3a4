package kafka

import (
	"Herald/internal/api/config"
	"Herald/internal/pkg/dedup"
	"Herald/internal/pkg/mongo"
	"Herald/internal/repository"
	"Herald/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

type consumerEntry struct {
	name    string
	topic   string
	group   sarama.ConsumerGroup
	handler sarama.ConsumerGroupHandler
}

// ConsumerManager 管理所有变更监听消费者
type ConsumerManager struct {
	entries []consumerEntry
}

// NewConsumerManager 构造函数，为每类事件建立独立的消费组
func NewConsumerManager(
	cfg *config.Config,
	dispatcher service.Dispatcher,
	notices service.NoticeService,
	tracker dedup.Tracker,
	failures mongo.PushFailureRepo,
	postRepo repository.PostRepo,
	communityRepo repository.CommunityRepo,
) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	bindings := []struct {
		spec    Spec
		binding config.KafkaConsumerBinding
	}{
		{NewAnnouncementSpec(), cfg.KafkaAnnouncementConsumer},
		{NewCommentSpec(), cfg.KafkaCommentConsumer},
		{NewLikeSpec(), cfg.KafkaLikeConsumer},
		{NewReplySpec(), cfg.KafkaReplyConsumer},
		{NewMarketSpec(), cfg.KafkaMarketConsumer},
		{NewChatSpec(), cfg.KafkaChatConsumer},
		{NewReportSpec(), cfg.KafkaReportConsumer},
		{NewVolunteerSpec(), cfg.KafkaVolunteerConsumer},
	}

	m := &ConsumerManager{entries: make([]consumerEntry, 0, len(bindings))}
	for _, b := range bindings {
		group, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, b.binding.GroupID, saramaCfg)
		if err != nil {
			return nil, err
		}
		watcher := NewWatcher(b.spec, dispatcher, notices, tracker, failures, postRepo, communityRepo, cfg.Watcher)
		m.entries = append(m.entries, consumerEntry{
			name:    b.spec.Name,
			topic:   b.binding.Topic,
			group:   group,
			handler: watcher,
		})
	}
	return m, nil
}

// Start 启动所有消费者
func (m *ConsumerManager) Start(ctx context.Context) error {
	for i := range m.entries {
		e := &m.entries[i]
		go func(e *consumerEntry) {
			log.Info(e.name+" consumer started", "topic", e.topic)
			for {
				if err := e.group.Consume(ctx, []string{e.topic}, e.handler); err != nil {
					log.Error("Error from consumer", "watcher", e.name, "err", err)
				}
				if ctx.Err() != nil {
					return
				}
			}
		}(e)
	}

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	for i := range m.entries {
		if err := m.entries[i].group.Close(); err != nil {
			log.Error("Failed to close consumer", "watcher", m.entries[i].name, "err", err)
		}
	}
	return nil
}
