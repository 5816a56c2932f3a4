package kafka

import (
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"context"
	log "log/slog"
)

// NewCommentSpec 帖子评论：通知帖子作者，自评不通知
func NewCommentSpec() Spec {
	return Spec{
		Name:   "comment",
		Table:  "post_comments",
		Handle: handleComment,
	}
}

func handleComment(ctx context.Context, w *Watcher, msg *CanalMessage) error {
	if msg.Type != INSERT {
		return nil
	}

	for _, row := range msg.Data {
		id := StrToString(row["id"])
		postID := StrToUint64(row["post_id"])
		authorID := StrToUint64(row["user_id"])
		content := StrToString(row["content"])
		if id == "" || postID == 0 {
			continue
		}

		post, err := w.postRepo.GetPostById(ctx, postID)
		if err != nil {
			// 主库抖动，交给批处理重试
			return err
		}
		if post == nil {
			log.WarnContext(ctx, "comment on missing post", "postID", postID)
			continue
		}
		if post.UserID == authorID {
			continue
		}

		n := &Notification{
			EntityID:  id,
			ElementID: id,
			ActorID:   authorID,
			Title:     "收到新评论",
			Body:      Truncate(content, bodyLimit),
			Category:  consts.CategorySocial,
			Payload: map[string]string{
				mongo.PayloadEntityKey: id,
				"post_id":              StrToString(row["post_id"]),
				"type":                 "comment",
			},
		}
		if err = w.NotifyUser(ctx, n, post.UserID); err != nil {
			return err
		}
	}
	return nil
}
