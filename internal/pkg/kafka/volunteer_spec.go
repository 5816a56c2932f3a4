package kafka

import (
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"context"
	log "log/slog"
	"strconv"
)

// NewVolunteerSpec 志愿活动：新活动广播社区；
// 报名名单是整列快照，UPDATE 时做集合差分，新报名者触发给发起人的通知
func NewVolunteerSpec() Spec {
	return Spec{
		Name:   "volunteer",
		Table:  "volunteer_activities",
		Handle: handleVolunteer,
	}
}

func handleVolunteer(ctx context.Context, w *Watcher, msg *CanalMessage) error {
	switch msg.Type {
	case INSERT:
		return handleVolunteerCreated(ctx, w, msg)
	case UPDATE:
		return handleVolunteerJoined(ctx, w, msg)
	default:
		return nil
	}
}

func handleVolunteerCreated(ctx context.Context, w *Watcher, msg *CanalMessage) error {
	for _, row := range msg.Data {
		id := StrToString(row["id"])
		communityID := StrToUint64(row["community_id"])
		ownerID := StrToUint64(row["user_id"])
		title := StrToString(row["title"])
		if id == "" || communityID == 0 {
			continue
		}

		n := &Notification{
			EntityID:  id,
			ElementID: id,
			ActorID:   ownerID,
			Title:     "新志愿活动",
			Body:      Truncate(title, bodyLimit),
			Category:  consts.CategoryVolunteer,
			Payload: map[string]string{
				mongo.PayloadEntityKey: id,
				"community_id":         StrToString(row["community_id"]),
				"type":                 "volunteer",
			},
		}
		if err := w.Broadcast(ctx, n, communityID, ownerID); err != nil {
			return err
		}
		log.InfoContext(ctx, "volunteer activity processed", "id", id, "communityID", communityID)
	}
	return nil
}

func handleVolunteerJoined(ctx context.Context, w *Watcher, msg *CanalMessage) error {
	for _, row := range msg.Data {
		id := StrToString(row["id"])
		ownerID := StrToUint64(row["user_id"])
		title := StrToString(row["title"])
		if id == "" || ownerID == 0 {
			continue
		}

		members := ParseMembers(StrToString(row["participants"]))
		ownerStr := strconv.FormatUint(ownerID, 10)

		err := w.NotifyJoinedMembers(ctx, id, members, func(member string) (*Notification, uint64) {
			if member == ownerStr {
				return nil, 0
			}
			return &Notification{
				EntityID:  id,
				ElementID: member,
				ActorID:   StrToUint64(member),
				Title:     "活动有新报名",
				Body:      Truncate(title, bodyLimit),
				Category:  consts.CategoryVolunteer,
				Payload: map[string]string{
					mongo.PayloadEntityKey: id,
					"member_id":            member,
					"type":                 "volunteer_join",
				},
			}, ownerID
		})
		if err != nil {
			return err
		}
	}
	return nil
}
