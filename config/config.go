// config.go

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 服务器配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Stats    StatsConfig    `mapstructure:"stats"`
}

// ServerConfig 服务器基本配置
type ServerConfig struct {
	GamePort       int           `mapstructure:"game_port"`
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	MaxPlayers     int           `mapstructure:"max_players"`
	TickRate       int           `mapstructure:"tick_rate"`      // 每秒tick数
	MatchDuration  time.Duration `mapstructure:"match_duration"` // 0表示不分局
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RateLimit      int           `mapstructure:"rate_limit"` // 每个IP每分钟HTTP请求数，0表示不限制
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	AccountCacheTTL time.Duration `mapstructure:"account_cache_ttl"`
}

// AuthConfig 握手认证配置
type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	AllowGuests bool   `mapstructure:"allow_guests"`
}

// StatsConfig 战绩结算配置
type StatsConfig struct {
	GameMode         string        `mapstructure:"game_mode"`
	PersistQueueSize int           `mapstructure:"persist_queue_size"`
	PersistTimeout   time.Duration `mapstructure:"persist_timeout"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig Config

	// 环境变量 PIXELSTORM_SERVER_GAME_PORT 对应 server.game_port
	envReplacer = strings.NewReplacer(".", "_")
)

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.game_port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.max_players", 64)
	v.SetDefault("server.tick_rate", 30)
	v.SetDefault("server.match_duration", time.Duration(0))
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 120)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "pixelstorm")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.account_cache_ttl", time.Minute)

	v.SetDefault("auth.allow_guests", true)

	v.SetDefault("stats.game_mode", "battle_royale")
	v.SetDefault("stats.persist_queue_size", 256)
	v.SetDefault("stats.persist_timeout", 5*time.Second)
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	GlobalConfig = *cfg
	return nil
}

// Load 读取配置文件，不修改全局配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("PIXELSTORM")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("无效的tick_rate: %d", c.Server.TickRate)
	}
	if c.Server.MatchDuration < 0 {
		return fmt.Errorf("无效的match_duration: %s", c.Server.MatchDuration)
	}
	if c.Server.GamePort <= 0 {
		return fmt.Errorf("无效的game_port: %d", c.Server.GamePort)
	}
	if c.Auth.JWTSecret == "" && !c.Auth.AllowGuests {
		return fmt.Errorf("未配置jwt_secret且禁止游客，无人可以连接")
	}
	return nil
}

// TickInterval 获取tick间隔
func (s *ServerConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

// GetDSN 获取PostgreSQL连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetRedisAddr 获取Redis连接地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
