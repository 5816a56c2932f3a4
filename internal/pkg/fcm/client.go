package fcm

import (
	"context"
	"time"

	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
)

// Message 单设备推送内容
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Gateway 推送网关抽象，便于替换为测试替身
type Gateway interface {
	Send(ctx context.Context, msg *Message) error
}

type Client struct {
	messaging *messaging.Client
}

// 社区事件时效性强，过期后不再值得唤醒设备
const messageTTL = 10 * time.Minute

// Send 向单个设备令牌发送高优先级推送
func (c *Client) Send(ctx context.Context, msg *Message) error {
	ttl := messageTTL

	fcmMsg := &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			TTL:      &ttl,
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	_, err := c.messaging.Send(ctx, fcmMsg)
	return err
}

// FailureClass 投递失败分类
type FailureClass int

const (
	FailureNone FailureClass = iota
	// FailureTransient 网关暂时不可用，令牌保留，可重试
	FailureTransient
	// FailurePermanent 令牌已失效，应从用户令牌集合中剔除
	FailurePermanent
)

// ClassifyError 将网关错误归类为永久/瞬时失败
func ClassifyError(err error) FailureClass {
	switch {
	case err == nil:
		return FailureNone
	case messaging.IsUnregistered(err),
		messaging.IsSenderIDMismatch(err),
		errorutils.IsInvalidArgument(err):
		return FailurePermanent
	default:
		return FailureTransient
	}
}
