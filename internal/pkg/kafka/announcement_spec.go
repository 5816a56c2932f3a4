package kafka

import (
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"context"
	log "log/slog"
)

// NewAnnouncementSpec 社区公告：新增后广播给除发布者外的全体成员
func NewAnnouncementSpec() Spec {
	return Spec{
		Name:   "announcement",
		Table:  "announcements",
		Handle: handleAnnouncement,
	}
}

func handleAnnouncement(ctx context.Context, w *Watcher, msg *CanalMessage) error {
	if msg.Type != INSERT {
		return nil
	}

	for _, row := range msg.Data {
		id := StrToString(row["id"])
		communityID := StrToUint64(row["community_id"])
		authorID := StrToUint64(row["user_id"])
		title := StrToString(row["title"])
		if id == "" || communityID == 0 {
			continue
		}

		n := &Notification{
			EntityID:  id,
			ElementID: id,
			ActorID:   authorID,
			Title:     "社区公告",
			Body:      Truncate(title, bodyLimit),
			Category:  consts.CategoryAnnouncement,
			Payload: map[string]string{
				mongo.PayloadEntityKey: id,
				"community_id":         StrToString(row["community_id"]),
				"type":                 "announcement",
			},
		}
		if err := w.Broadcast(ctx, n, communityID, authorID); err != nil {
			return err
		}
		log.InfoContext(ctx, "announcement processed", "id", id, "communityID", communityID)
	}
	return nil
}
