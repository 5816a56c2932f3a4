package kafka

import (
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"context"
)

// NewChatSpec 私信：通知接收者
func NewChatSpec() Spec {
	return Spec{
		Name:   "chat",
		Table:  "chat_messages",
		Handle: handleChat,
	}
}

func handleChat(ctx context.Context, w *Watcher, msg *CanalMessage) error {
	if msg.Type != INSERT {
		return nil
	}

	for _, row := range msg.Data {
		id := StrToString(row["id"])
		senderID := StrToUint64(row["sender_id"])
		receiverID := StrToUint64(row["receiver_id"])
		content := StrToString(row["content"])
		if id == "" || receiverID == 0 || senderID == receiverID {
			continue
		}

		n := &Notification{
			EntityID:  id,
			ElementID: id,
			ActorID:   senderID,
			Title:     "新私信",
			Body:      Truncate(content, bodyLimit),
			Category:  consts.CategoryChat,
			Payload: map[string]string{
				mongo.PayloadEntityKey: id,
				"sender_id":            StrToString(row["sender_id"]),
				"type":                 "chat",
			},
		}
		if err := w.NotifyUser(ctx, n, receiverID); err != nil {
			return err
		}
	}
	return nil
}
