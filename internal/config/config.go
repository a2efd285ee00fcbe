package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Module provides the application configuration.
var Module = fx.Provide(Load)

// Config holds everything the collector and the read API consume.
// Upstream credentials, the collection cadence and the storage target;
// nothing else.
type Config struct {
	AppName  string
	HTTPAddr string
	LogLevel string

	Taara TaaraConfig

	CollectInterval time.Duration
	UpstreamTimeout time.Duration

	DBType     string
	DBPath     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

// TaaraConfig carries the subscriber credentials for the upstream API.
type TaaraConfig struct {
	BaseURL          string
	PhoneCountryCode string
	PhoneNumber      string
	Passcode         string
	PartnerID        string
	HotspotID        string
}

// Load reads configuration from environment variables and an optional
// .env file.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app_service", "bundlewatch")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("taara_base_url", "https://share.taara.company/v1")
	v.SetDefault("collect_interval_minutes", 15)
	v.SetDefault("upstream_timeout_seconds", 30)
	v.SetDefault("database_type", "sqlite")
	v.SetDefault("database_path", "bundlewatch.db")
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", "5432")
	v.SetDefault("database_name", "bundlewatch")
	v.SetDefault("database_user", "postgres")
	v.SetDefault("database_sslmode", "disable")

	return Config{
		AppName:  v.GetString("app_service"),
		HTTPAddr: v.GetString("http_addr"),
		LogLevel: strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		Taara: TaaraConfig{
			BaseURL:          strings.TrimRight(v.GetString("taara_base_url"), "/"),
			PhoneCountryCode: v.GetString("taara_phone_country_code"),
			PhoneNumber:      v.GetString("taara_phone_number"),
			Passcode:         v.GetString("taara_passcode"),
			PartnerID:        v.GetString("taara_partner_id"),
			HotspotID:        v.GetString("taara_hotspot_id"),
		},
		CollectInterval: time.Duration(v.GetInt("collect_interval_minutes")) * time.Minute,
		UpstreamTimeout: time.Duration(v.GetInt("upstream_timeout_seconds")) * time.Second,
		DBType:          strings.ToLower(v.GetString("database_type")),
		DBPath:          v.GetString("database_path"),
		DBHost:          v.GetString("database_host"),
		DBPort:          v.GetString("database_port"),
		DBName:          v.GetString("database_name"),
		DBUser:          v.GetString("database_user"),
		DBPassword:      v.GetString("database_password"),
		DBSSLMode:       v.GetString("database_sslmode"),
	}
}
