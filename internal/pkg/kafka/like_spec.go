package kafka

import (
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"context"
	log "log/slog"
)

// NewLikeSpec 帖子点赞：通知帖子作者，自赞不通知
func NewLikeSpec() Spec {
	return Spec{
		Name:   "like",
		Table:  "post_likes",
		Handle: handleLike,
	}
}

func handleLike(ctx context.Context, w *Watcher, msg *CanalMessage) error {
	// 取消点赞不撤回通知
	if msg.Type != INSERT {
		return nil
	}

	for _, row := range msg.Data {
		id := StrToString(row["id"])
		postID := StrToUint64(row["post_id"])
		likerID := StrToUint64(row["user_id"])
		if id == "" || postID == 0 {
			continue
		}

		post, err := w.postRepo.GetPostById(ctx, postID)
		if err != nil {
			return err
		}
		if post == nil {
			log.WarnContext(ctx, "like on missing post", "postID", postID)
			continue
		}
		if post.UserID == likerID {
			continue
		}

		n := &Notification{
			EntityID:  id,
			ElementID: id,
			ActorID:   likerID,
			Title:     "帖子收获点赞",
			Body:      Truncate(post.Title, bodyLimit),
			Category:  consts.CategorySocial,
			Payload: map[string]string{
				mongo.PayloadEntityKey: id,
				"post_id":              StrToString(row["post_id"]),
				"type":                 "like",
			},
		}
		if err = w.NotifyUser(ctx, n, post.UserID); err != nil {
			return err
		}
	}
	return nil
}
