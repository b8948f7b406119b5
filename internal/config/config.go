package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ft583086849/zhixing-sub003/internal/commission"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Commission CommissionConfig `mapstructure:"commission"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Business   BusinessConfig   `mapstructure:"business"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port   int    `mapstructure:"port"`
	Mode   string `mapstructure:"mode"` // gin 运行模式：debug / release / test
	NodeID int64  `mapstructure:"node_id"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres 或 mysql
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	CommissionPayout string `mapstructure:"commission_payout"`
	OrderStatus      string `mapstructure:"order_status"`
}

// CommissionConfig 佣金口径，全部以百分比表示
type CommissionConfig struct {
	PrimaryBaseRate      string   `mapstructure:"primary_base_rate"`
	RMBPerUSD            string   `mapstructure:"rmb_per_usd"`
	DefaultPrimaryRate   string   `mapstructure:"default_primary_rate"`
	DefaultSecondaryRate string   `mapstructure:"default_secondary_rate"` // 必填
	ConfirmedStatuses    []string `mapstructure:"confirmed_statuses"`
}

type CacheConfig struct {
	KeyPrefix  string `mapstructure:"key_prefix"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type FetchConfig struct {
	TimeoutSeconds  int `mapstructure:"timeout_seconds"`
	MaxRetries      int `mapstructure:"max_retries"`
	RetryIntervalMs int `mapstructure:"retry_interval_ms"`
}

type BusinessConfig struct {
	MaxRetryCount          int `mapstructure:"max_retry_count"`
	RefreshIntervalSeconds int `mapstructure:"refresh_interval_seconds"`
}

type RateLimitConfig struct {
	Rate string `mapstructure:"rate"` // ulule 格式，例如 120-M
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// setDefaults 每个配置项都要在这里登记，AutomaticEnv 只覆盖 viper 已知的 key，
// 没有合理默认值的项登记为空值，由 Validate 检查
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.node_id", 1)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.topic.commission_payout", "commission_payout")
	v.SetDefault("kafka.topic.order_status", "order_status")
	v.SetDefault("commission.primary_base_rate", "40")
	v.SetDefault("commission.rmb_per_usd", "7.15")
	v.SetDefault("commission.default_primary_rate", "40")
	v.SetDefault("commission.default_secondary_rate", "")
	v.SetDefault("commission.confirmed_statuses", []string{"confirmed"})
	v.SetDefault("cache.key_prefix", "commission:")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("fetch.timeout_seconds", 10)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.retry_interval_ms", 200)
	v.SetDefault("business.max_retry_count", 5)
	v.SetDefault("business.refresh_interval_seconds", 60)
	v.SetDefault("rate_limit.rate", "120-M")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
}

// LoadConfig 加载配置文件
// 同目录或工作目录下的 .env 会先加载进环境变量，环境变量优先于文件，例如 DATABASE_PASSWORD
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "mysql" {
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Commission.DefaultSecondaryRate) == "" {
		return errors.New("commission.default_secondary_rate 未配置")
	}
	policy, err := c.Policy()
	if err != nil {
		return err
	}
	return policy.Validate()
}

// Policy 由配置构建佣金计算口径
func (c *Config) Policy() (commission.Policy, error) {
	var p commission.Policy
	var err error

	if p.PrimaryBaseRate, err = decimal.NewFromString(c.Commission.PrimaryBaseRate); err != nil {
		return p, fmt.Errorf("primary_base_rate 格式错误: %w", err)
	}
	if p.RMBPerUSD, err = decimal.NewFromString(c.Commission.RMBPerUSD); err != nil {
		return p, fmt.Errorf("rmb_per_usd 格式错误: %w", err)
	}
	if p.DefaultPrimaryRate, err = decimal.NewFromString(c.Commission.DefaultPrimaryRate); err != nil {
		return p, fmt.Errorf("default_primary_rate 格式错误: %w", err)
	}
	if p.DefaultSecondaryRate, err = decimal.NewFromString(c.Commission.DefaultSecondaryRate); err != nil {
		return p, fmt.Errorf("default_secondary_rate 格式错误: %w", err)
	}

	// 配置里允许写 0.25 这种小数形式
	p.DefaultPrimaryRate, _ = commission.NormalizePercent(p.DefaultPrimaryRate)
	p.DefaultSecondaryRate, _ = commission.NormalizePercent(p.DefaultSecondaryRate)

	for _, raw := range c.Commission.ConfirmedStatuses {
		p.ConfirmedStatuses = append(p.ConfirmedStatuses, commission.ParseStatus(raw))
	}
	return p, nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

func (c *Config) FetchRetryInterval() time.Duration {
	return time.Duration(c.Fetch.RetryIntervalMs) * time.Millisecond
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Business.RefreshIntervalSeconds) * time.Second
}
