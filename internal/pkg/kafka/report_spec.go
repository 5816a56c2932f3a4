package kafka

import (
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"context"
	log "log/slog"
	"strconv"
)

// NewReportSpec 举报：逐个通知社区管理员，按管理员细分去重键
func NewReportSpec() Spec {
	return Spec{
		Name:   "report",
		Table:  "reports",
		Handle: handleReport,
	}
}

func handleReport(ctx context.Context, w *Watcher, msg *CanalMessage) error {
	if msg.Type != INSERT {
		return nil
	}

	for _, row := range msg.Data {
		id := StrToString(row["id"])
		communityID := StrToUint64(row["community_id"])
		reporterID := StrToUint64(row["reporter_id"])
		reason := StrToString(row["reason"])
		if id == "" || communityID == 0 {
			continue
		}

		moderatorIDs, err := w.communityRepo.GetModeratorIds(ctx, communityID)
		if err != nil {
			return err
		}
		if len(moderatorIDs) == 0 {
			log.WarnContext(ctx, "report in community without moderators", "reportID", id, "communityID", communityID)
			continue
		}

		for _, moderatorID := range moderatorIDs {
			// 举报人自己是管理员时不通知本人
			if moderatorID == reporterID {
				continue
			}

			n := &Notification{
				EntityID:  id,
				ElementID: strconv.FormatUint(moderatorID, 10),
				ActorID:   reporterID,
				Title:     "新举报待处理",
				Body:      Truncate(reason, bodyLimit),
				Category:  consts.CategoryReport,
				Payload: map[string]string{
					mongo.PayloadEntityKey: id,
					"community_id":         StrToString(row["community_id"]),
					"type":                 "report",
				},
			}
			if err = w.NotifyUser(ctx, n, moderatorID); err != nil {
				return err
			}
		}
	}
	return nil
}
