package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Database      DatabaseConfig   `json:"database"`
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	MeshSecret    string           `json:"mesh_secret"`
	BotSecret     string           `json:"bot_control_secret"`
	TokenSecret   string           `json:"token_secret"`
	ShareBaseURL  string           `json:"share_base_url"`
	ShareTTLSecs  int64            `json:"share_ttl_seconds"`
	SystemUserID  string           `json:"system_user_id"`
	LinkCache     LinkCacheConfig  `json:"link_cache"`
	Cleanup       CleanupConfig    `json:"cleanup"`
	RedeemLimitMS int64            `json:"redeem_limit_ms"`
	LogConfig     logger.LogConfig `json:"log_config"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type LinkCacheConfig struct {
	Size     int   `json:"size"`
	TTLSecs  int64 `json:"ttl_seconds"`
	Disabled bool  `json:"disabled"`
}

type CleanupConfig struct {
	Spec          string `json:"spec"`
	RetentionDays int    `json:"retention_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("token_secret is required")
	}
	if cfg.ShareBaseURL == "" {
		return nil, fmt.Errorf("share_base_url is required")
	}
	if cfg.ShareTTLSecs == 0 {
		cfg.ShareTTLSecs = 7 * 24 * 3600
	}
	if cfg.LinkCache.Size == 0 {
		cfg.LinkCache.Size = 4096
	}
	if cfg.LinkCache.TTLSecs == 0 {
		cfg.LinkCache.TTLSecs = 300
	}
	if cfg.Cleanup.Spec == "" {
		cfg.Cleanup.Spec = "30 3 * * *"
	}
	if cfg.Cleanup.RetentionDays == 0 {
		cfg.Cleanup.RetentionDays = 30
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}
