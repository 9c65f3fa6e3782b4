package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 애플리케이션 설정
type Config struct {
	Env          string             `yaml:"env"`
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	JWT          JWTConfig          `yaml:"jwt"`
	CORS         CORSConfig         `yaml:"cors"`
	Storage      StorageConfig      `yaml:"storage"`
	Moderation   ModerationConfig   `yaml:"moderation"`
	Notification NotificationConfig `yaml:"notification"`
	Auction      AuctionConfig      `yaml:"auction"`
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

// DatabaseConfig MySQL 연결 설정
type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// GetDSN builds the go-sql-driver DSN
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

// RedisConfig Redis 연결 설정
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig 토큰 설정
type JWTConfig struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // seconds
	RefreshIn int    `yaml:"refresh_in"` // seconds
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

// StorageConfig S3 호환 첨부파일 저장소
type StorageConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	CDNURL          string `yaml:"cdn_url"`
	BasePath        string `yaml:"base_path"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	PresignTTL      int    `yaml:"presign_ttl"` // seconds
}

// PresignExpiry returns the presigned URL lifetime
func (s StorageConfig) PresignExpiry() time.Duration {
	if s.PresignTTL <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.PresignTTL) * time.Second
}

// ModerationConfig static moderation rules, optionally overridden from Redis
type ModerationConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Keywords      []string `yaml:"keywords"`
	BlockPhone    bool     `yaml:"block_phone"`
	BlockLinks    bool     `yaml:"block_links"`
	RedisOverride bool     `yaml:"redis_override"`
}

// NotificationConfig 알림 전달 설정
type NotificationConfig struct {
	LiveQueueSize int        `yaml:"live_queue_size"`
	AsyncQueue    bool       `yaml:"async_queue"` // asynq 사용 여부
	Email         SMTPConfig `yaml:"email"`
	Push          PushConfig `yaml:"push"`
}

// SMTPConfig transactional email side channel
type SMTPConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	FromAddress string `yaml:"from_address"`
}

// PushConfig push gateway side channel
type PushConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Timeout  int    `yaml:"timeout"` // seconds
}

// AuctionConfig 역경매 설정
type AuctionConfig struct {
	MinOffers     int `yaml:"min_offers"`
	CommitRetries int `yaml:"commit_retries"`
}

// IsDevelopment reports whether the app runs locally
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "local" || c.Env == "development" || c.Env == "dev"
}

// Load reads a YAML config file and applies environment overrides.
// A missing file is not an error: defaults plus env are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	cfg.normalize()
	return cfg, nil
}

// Default returns the baseline configuration
func Default() *Config {
	return &Config{
		Env:    "local",
		Server: ServerConfig{Port: 8082, Mode: "debug"},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            3306,
			User:            "root",
			DBName:          "bazaar",
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: 3600,
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379, PoolSize: 20},
		JWT:   JWTConfig{ExpiresIn: 3600, RefreshIn: 604800},
		Moderation: ModerationConfig{
			Enabled:    true,
			BlockPhone: true,
			BlockLinks: true,
		},
		Notification: NotificationConfig{LiveQueueSize: 64},
		Auction:      AuctionConfig{MinOffers: 3, CommitRetries: 5},
	}
}

func (c *Config) normalize() {
	if c.Auction.MinOffers <= 0 {
		c.Auction.MinOffers = 3
	}
	if c.Auction.CommitRetries <= 0 {
		c.Auction.CommitRetries = 5
	}
	if c.Notification.LiveQueueSize <= 0 {
		c.Notification.LiveQueueSize = 64
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Env, "APP_ENV")
	setInt(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Mode, "GIN_MODE")

	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")

	setString(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")

	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")

	setString(&cfg.Storage.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&cfg.Storage.Bucket, "S3_BUCKET")

	setString(&cfg.Notification.Email.Password, "SMTP_PASSWORD")
	setString(&cfg.Notification.Push.APIKey, "PUSH_API_KEY")

	if v := os.Getenv("MODERATION_KEYWORDS"); v != "" {
		cfg.Moderation.Keywords = splitAndTrim(v, ",")
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// LogResolved returns the non-secret settings worth printing at startup
func LogResolved(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"env":          cfg.Env,
		"port":         cfg.Server.Port,
		"db_host":      cfg.Database.Host,
		"db_name":      cfg.Database.DBName,
		"redis":        cfg.Redis.Addr(),
		"storage":      cfg.Storage.Enabled,
		"async_queue":  cfg.Notification.AsyncQueue,
		"min_offers":   cfg.Auction.MinOffers,
		"jwt_secret":   cfg.JWT.Secret != "",
	}
}
