package config

type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	GameServer GameServerConfig `yaml:"gameserver" mapstructure:"gameserver"`
	GRPCServer GRPCServerConfig `yaml:"grpcserver" mapstructure:"grpcserver"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	MongoDB    MongoDBConfig    `yaml:"mongodb" mapstructure:"mongodb"`
	MySQL      MySQLConfig      `yaml:"mysql" mapstructure:"mysql"`
	Journal    JournalConfig    `yaml:"journal" mapstructure:"journal"`
	Production ProductionConfig `yaml:"production" mapstructure:"production"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit" mapstructure:"ratelimit"`
	JWTSecret  string           `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	NodeID     int64            `yaml:"node_id" mapstructure:"node_id"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"` // debug/info/warn/error...
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}

type GameServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

type GRPCServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// StoreConfig 写回存储：driver 取 memory / mongodb / mysql。
type StoreConfig struct {
	Driver       string `yaml:"driver" mapstructure:"driver"`
	FlushEveryMS int    `yaml:"flush_every_ms" mapstructure:"flush_every_ms"`
}

type MongoDBConfig struct {
	URI             string `yaml:"uri" mapstructure:"uri"`
	Database        string `yaml:"database" mapstructure:"database"`
	ConnectTimeoutS int    `yaml:"connect_timeout_s" mapstructure:"connect_timeout_s"`
}

type MySQLConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
	Charset  string `yaml:"charset" mapstructure:"charset"`
	MaxIdle  int    `yaml:"max_idle" mapstructure:"max_idle"`
	MaxConn  int    `yaml:"max_conn" mapstructure:"max_conn"`
	ShowSQL  bool   `yaml:"show_sql" mapstructure:"show_sql"`
}

// JournalConfig 事件流水（sqlite）。Path 为空则不落盘。
type JournalConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type ProductionConfig struct {
	PeriodS int   `yaml:"period_s" mapstructure:"period_s"`
	Cap     int64 `yaml:"cap" mapstructure:"cap"`
}

// RateLimitConfig 每个玩家的命令限流。
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second" mapstructure:"per_second"`
	Burst     int     `yaml:"burst" mapstructure:"burst"`
}
