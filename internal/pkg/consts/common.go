package consts

// 通知类别，用户可按类别开关
const (
	CategoryAnnouncement = "announcement"
	CategorySocial       = "social"
	CategoryMarket       = "market"
	CategoryChat         = "chat"
	CategoryReport       = "report"
	CategoryVolunteer    = "volunteer"
)

// 通知归属范围
const (
	ScopeUser      = "user"
	ScopeCommunity = "community"
)

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformWeb     = "web"
)

const DefaultAvatarURL = "default_avatar.png"
