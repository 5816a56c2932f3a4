package mongo

import "time"

// DeviceToken 设备推送令牌，只存在于 TokenBundle 内部
type DeviceToken struct {
	Token        string    `bson:"token" json:"token"`
	Platform     string    `bson:"platform" json:"platform"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	LastActiveAt time.Time `bson:"last_active_at" json:"lastActiveAt"`
	LoggedOut    bool      `bson:"logged_out" json:"loggedOut"`
}

// TokenBundleModel 用户的令牌集合与通知偏好，首次注册令牌时惰性创建
type TokenBundleModel struct {
	UserID      uint64          `bson:"_id" json:"userId"`
	Tokens      []DeviceToken   `bson:"tokens" json:"tokens"`
	Preferences map[string]bool `bson:"preferences" json:"preferences"` // 缺省键视为开启
	UpdatedAt   time.Time       `bson:"updated_at" json:"updatedAt"`
}

// LiveTokens 返回未登出的令牌
func (m *TokenBundleModel) LiveTokens() []DeviceToken {
	tokens := make([]DeviceToken, 0, len(m.Tokens))
	for _, t := range m.Tokens {
		if !t.LoggedOut {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
