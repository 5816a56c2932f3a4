package service

import "Herald/internal/pkg/mongo"

// PreferenceEnabled 判断用户是否接收该类别的通知。
// 缺省键视为开启，兼容类别上线前注册的老用户。
func PreferenceEnabled(bundle *mongo.TokenBundleModel, category string) bool {
	if bundle == nil || bundle.Preferences == nil {
		return true
	}
	enabled, ok := bundle.Preferences[category]
	if !ok {
		return true
	}
	return enabled
}
