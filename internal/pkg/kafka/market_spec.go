package kafka

import (
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"context"
	log "log/slog"
)

// NewMarketSpec 二手市场：新上架商品广播给除卖家外的社区成员
func NewMarketSpec() Spec {
	return Spec{
		Name:   "market",
		Table:  "market_items",
		Handle: handleMarket,
	}
}

func handleMarket(ctx context.Context, w *Watcher, msg *CanalMessage) error {
	if msg.Type != INSERT {
		return nil
	}

	for _, row := range msg.Data {
		id := StrToString(row["id"])
		communityID := StrToUint64(row["community_id"])
		sellerID := StrToUint64(row["user_id"])
		title := StrToString(row["title"])
		if id == "" || communityID == 0 {
			continue
		}

		n := &Notification{
			EntityID:  id,
			ElementID: id,
			ActorID:   sellerID,
			Title:     "社区新上架",
			Body:      Truncate(title, bodyLimit),
			Category:  consts.CategoryMarket,
			Payload: map[string]string{
				mongo.PayloadEntityKey: id,
				"community_id":         StrToString(row["community_id"]),
				"type":                 "market",
			},
		}
		if err := w.Broadcast(ctx, n, communityID, sellerID); err != nil {
			return err
		}
		log.InfoContext(ctx, "market item processed", "id", id, "communityID", communityID)
	}
	return nil
}
