package kafka

import (
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"context"
	log "log/slog"
)

// NewReplySpec 评论回复：通知被回复的评论作者，自回不通知
func NewReplySpec() Spec {
	return Spec{
		Name:   "reply",
		Table:  "comment_replies",
		Handle: handleReply,
	}
}

func handleReply(ctx context.Context, w *Watcher, msg *CanalMessage) error {
	if msg.Type != INSERT {
		return nil
	}

	for _, row := range msg.Data {
		id := StrToString(row["id"])
		commentID := StrToUint64(row["comment_id"])
		authorID := StrToUint64(row["user_id"])
		content := StrToString(row["content"])
		if id == "" || commentID == 0 {
			continue
		}

		comment, err := w.postRepo.GetCommentById(ctx, commentID)
		if err != nil {
			return err
		}
		if comment == nil {
			log.WarnContext(ctx, "reply on missing comment", "commentID", commentID)
			continue
		}
		if comment.UserID == authorID {
			continue
		}

		n := &Notification{
			EntityID:  id,
			ElementID: id,
			ActorID:   authorID,
			Title:     "评论收到回复",
			Body:      Truncate(content, bodyLimit),
			Category:  consts.CategorySocial,
			Payload: map[string]string{
				mongo.PayloadEntityKey: id,
				"comment_id":           StrToString(row["comment_id"]),
				"post_id":              StrToString(comment.PostID),
				"type":                 "reply",
			},
		}
		if err = w.NotifyUser(ctx, n, comment.UserID); err != nil {
			return err
		}
	}
	return nil
}
