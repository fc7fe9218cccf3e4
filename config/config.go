package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/webitel/event-exporter/internal/errors"
)

type AppConfig struct {
	File     string          `json:"-"`
	Database *DatabaseConfig `json:"database,omitempty"`
	Redis    *RedisConfig    `json:"redis,omitempty"`
	Export   *ExportConfig   `json:"export,omitempty"`
}

type DatabaseConfig struct {
	Url string `json:"url"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// ExportConfig carries the filesystem roots the asset resolver maps logical
// paths onto, the fonts directory for the embeddable font chain and the
// directory finished documents are written into.
type ExportConfig struct {
	Workers         int    `json:"workers"`
	OutputDir       string `json:"outputDir"`
	ContentRoot     string `json:"contentRoot"`
	WebRoot         string `json:"webRoot"`
	FontsDir        string `json:"fontsDir"`
	VerificationURL string `json:"verificationUrl"`
	BrandingText    string `json:"brandingText"`
}

func LoadConfig() (*AppConfig, error) {
	bindFlagsAndEnv()

	configFile := getConfigFilePath()
	if configFile != "" {
		if err := loadFromFile(configFile); err != nil {
			return nil, err
		}
	}

	cfg := buildAppConfig(configFile)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func bindFlagsAndEnv() {
	pflag.String("config_file", "", "Configuration file in JSON format")

	// database
	pflag.String("data_source", "", "Data source")

	// redis
	pflag.String("redis_addr", "localhost:6379", "Redis address")
	pflag.String("redis_password", "", "Redis password")
	pflag.Int("redis_db", 0, "Redis DB number")

	// export
	pflag.Int("workers", 5, "Number of concurrent export workers")
	pflag.String("output_dir", "exports", "Directory for rendered documents")
	pflag.String("content_root", "content", "Root for content-relative asset paths")
	pflag.String("web_root", "wwwroot", "Root for web-relative asset paths")
	pflag.String("fonts_dir", "fonts", "Directory with embeddable TTF fonts")
	pflag.String("verification_url", "", "Default verification base URL")
	pflag.String("branding_text", "", "Default branding footer text")

	// one-shot mode
	pflag.Int64("event_id", 0, "Export a single event and exit")
	pflag.Bool("merged", false, "One-shot: merge custom PDFs ahead of the report")

	pflag.Parse()

	_ = viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit mapping
	_ = viper.BindEnv("data_source", "DATA_SOURCE")
	_ = viper.BindEnv("redis_addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis_db", "REDIS_DB")
	_ = viper.BindEnv("output_dir", "EXPORT_OUTPUT_DIR")
	_ = viper.BindEnv("content_root", "EXPORT_CONTENT_ROOT")
	_ = viper.BindEnv("web_root", "EXPORT_WEB_ROOT")
	_ = viper.BindEnv("fonts_dir", "EXPORT_FONTS_DIR")
	_ = viper.BindEnv("verification_url", "EXPORT_VERIFICATION_URL")
}

func getConfigFilePath() string {
	file := viper.GetString("config_file")
	if file == "" {
		file = os.Getenv("EVENT_EXPORTER_CONFIG_FILE")
	}
	return file
}

func loadFromFile(path string) error {
	viper.SetConfigFile(path)
	viper.SetConfigType("json")
	if err := viper.ReadInConfig(); err != nil {
		return errors.New(fmt.Sprintf("could not load config file: %s", err.Error()))
	}
	return nil
}

func buildAppConfig(file string) *AppConfig {
	return &AppConfig{
		File:     file,
		Database: &DatabaseConfig{Url: viper.GetString("data_source")},
		Redis: &RedisConfig{
			Addr:     viper.GetString("redis_addr"),
			Password: viper.GetString("redis_password"),
			DB:       viper.GetInt("redis_db"),
		},
		Export: &ExportConfig{
			Workers:         viper.GetInt("workers"),
			OutputDir:       viper.GetString("output_dir"),
			ContentRoot:     viper.GetString("content_root"),
			WebRoot:         viper.GetString("web_root"),
			FontsDir:        viper.GetString("fonts_dir"),
			VerificationURL: viper.GetString("verification_url"),
			BrandingText:    viper.GetString("branding_text"),
		},
	}
}

func validateConfig(cfg *AppConfig) error {
	if cfg.Database.Url == "" {
		return errors.New("Data source is required")
	}
	if cfg.Redis.Addr == "" {
		return errors.New("Redis address is required")
	}
	if cfg.Export.OutputDir == "" {
		return errors.New("Output directory is required")
	}
	return nil
}
