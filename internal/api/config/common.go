package config

// Config 配置主体
type Config struct {
	Server                    ServerConfig            `mapstructure:"server"`
	DB                        DBConfig                `mapstructure:"database"`
	Redis                     RedisConfig             `mapstructure:"redis"`
	Mongo                     MongoConfig             `mapstructure:"mongo"`
	MinIO                     MinIOConfig             `mapstructure:"minio"`
	Elastic                   ElasticConfig           `mapstructure:"elastic"`
	Logstash                  LogstashConfig          `mapstructure:"logstash"`
	FCM                       FCMConfig               `mapstructure:"fcm"`
	Identity                  IdentityConfig          `mapstructure:"identity"`
	Push                      PushConfig              `mapstructure:"push"`
	Watcher                   WatcherConfig           `mapstructure:"watcher"`
	Kafka                     KafkaConfig             `mapstructure:"kafka"`
	KafkaAnnouncementConsumer KafkaConsumerBinding    `mapstructure:"kafka_announcement_consumer"`
	KafkaCommentConsumer      KafkaConsumerBinding    `mapstructure:"kafka_comment_consumer"`
	KafkaLikeConsumer         KafkaConsumerBinding    `mapstructure:"kafka_like_consumer"`
	KafkaReplyConsumer        KafkaConsumerBinding    `mapstructure:"kafka_reply_consumer"`
	KafkaMarketConsumer       KafkaConsumerBinding    `mapstructure:"kafka_market_consumer"`
	KafkaChatConsumer         KafkaConsumerBinding    `mapstructure:"kafka_chat_consumer"`
	KafkaReportConsumer       KafkaConsumerBinding    `mapstructure:"kafka_report_consumer"`
	KafkaVolunteerConsumer    KafkaConsumerBinding    `mapstructure:"kafka_volunteer_consumer"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig Mongo配置
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	MainBucket string `mapstructure:"main_bucket"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// ElasticConfig Elastic配置
type ElasticConfig struct {
	Address   string `mapstructure:"address"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	UserIndex string `mapstructure:"user_index"`
}

// LogstashConfig 日志上报配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// FCMConfig 推送网关配置
type FCMConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	ProjectID       string `mapstructure:"project_id"`
}

// IdentityConfig 身份服务配置（昵称兜底查询）
type IdentityConfig struct {
	URL     string `mapstructure:"url"`
	ApiKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"`
}

// PushConfig 推送与令牌生命周期配置
type PushConfig struct {
	TokenLimit          int `mapstructure:"token_limit"`           // 单用户最大令牌数
	TokenRetentionDays  int `mapstructure:"token_retention_days"`  // 令牌不活跃保留天数
	NoticeRetentionDays int `mapstructure:"notice_retention_days"` // 通知保留天数
	SendTimeout         int `mapstructure:"send_timeout"`          // 单次推送超时（秒）
	MemberDelayMs       int `mapstructure:"member_delay_ms"`       // 社区广播成员间隔（毫秒）
}

// WatcherConfig 变更监听配置
type WatcherConfig struct {
	RecencyWindow    int `mapstructure:"recency_window"`    // 变更新鲜度窗口（秒）
	StartupGrace     int `mapstructure:"startup_grace"`     // 启动静默期（秒）
	MarkerTTLHours   int `mapstructure:"marker_ttl_hours"`  // 去重标记保留时长（小时）
	BroadcastRetries int `mapstructure:"broadcast_retries"` // 社区广播整体重试次数
	BroadcastDelayMs int `mapstructure:"broadcast_delay_ms"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaConsumerBinding 单个消费者的主题与组绑定
type KafkaConsumerBinding struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}
