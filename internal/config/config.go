package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"foldervault/internal/pkg/validator"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret = "change-me-jwt-secret"
	configName       = "foldervault"
)

type Config struct {
	AppEnv      string        `mapstructure:"app_env"`
	HTTPAddress string        `mapstructure:"http_address" validate:"required"`
	DatabaseURL string        `mapstructure:"database_url" validate:"required"`
	JWTSecret   string        `mapstructure:"jwt_secret" validate:"required"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" validate:"gt=0"`

	LogLevel  string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"required,oneof=console json"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	Storage StorageConfig `mapstructure:",squash"`
	Paging  PagingConfig  `mapstructure:",squash"`

	UploadMaxFileSize int64 `mapstructure:"upload_max_file_size" validate:"gt=0"`
	// ArchiveTempDir is where folder archives are built before sending;
	// empty means the system temp dir.
	ArchiveTempDir string `mapstructure:"archive_temp_dir"`
}

type StorageConfig struct {
	Type string `mapstructure:"storage_type" validate:"required,oneof=filesystem s3 memory"`
	Dir  string `mapstructure:"storage_dir"`

	S3Bucket          string `mapstructure:"s3_bucket"`
	S3Region          string `mapstructure:"s3_region"`
	S3Endpoint        string `mapstructure:"s3_endpoint"`
	S3AccessKeyID     string `mapstructure:"s3_access_key_id"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key"`
	S3KeyPrefix       string `mapstructure:"s3_key_prefix"`
	S3MaxRetries      int    `mapstructure:"s3_max_retries"`
}

// PagingConfig holds the fixed page sizes of the folder and file listings.
type PagingConfig struct {
	AdminFolderPageSize  int `mapstructure:"admin_folder_page_size" validate:"gt=0"`
	ClientFolderPageSize int `mapstructure:"client_folder_page_size" validate:"gt=0"`
	FilePageSize         int `mapstructure:"file_page_size" validate:"gt=0"`
}

var defaults = map[string]any{
	"app_env":                 "dev",
	"http_address":            ":5000",
	"database_url":            "foldervault.db",
	"jwt_secret":              defaultJWTSecret,
	"jwt_ttl":                 "24h",
	"log_level":               "info",
	"log_format":              "console",
	"cors_allowed_origins":    []string{},
	"storage_type":            "filesystem",
	"storage_dir":             "./uploads",
	"s3_bucket":               "",
	"s3_region":               "",
	"s3_endpoint":             "",
	"s3_access_key_id":        "",
	"s3_secret_access_key":    "",
	"s3_key_prefix":           "",
	"s3_max_retries":          10,
	"admin_folder_page_size":  9,
	"client_folder_page_size": 6,
	"file_page_size":          6,
	"archive_temp_dir":        "",
	"upload_max_file_size":    50 * 1024 * 1024,
}

// Load reads configuration from an optional .env file, an optional
// foldervault.yaml (., ./config) and the environment, in increasing priority.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	keys := make([]string, 0, len(defaults))
	for k, val := range defaults {
		v.SetDefault(k, val)
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("using config file")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.normalize()

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Storage.Type = strings.ToLower(strings.TrimSpace(c.Storage.Type))

	// CORS_ALLOWED_ORIGINS=https://app.com,https://admin.app.com
	var origins []string
	for _, raw := range c.CORSAllowedOrigins {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	c.CORSAllowedOrigins = origins
}

func validateConfig(cfg *Config) error {
	if errs := validator.Validate(cfg); errs != nil {
		fields := make([]string, 0, len(errs))
		for f, msg := range errs {
			fields = append(fields, fmt.Sprintf("%s %s", strings.ToUpper(f), msg))
		}
		sort.Strings(fields)
		return fmt.Errorf("invalid config: %s", strings.Join(fields, "; "))
	}

	switch cfg.Storage.Type {
	case "filesystem":
		if strings.TrimSpace(cfg.Storage.Dir) == "" {
			return fmt.Errorf("STORAGE_DIR must be set when STORAGE_TYPE=filesystem")
		}
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET must be set when STORAGE_TYPE=s3")
		}
		if cfg.Storage.S3Region == "" {
			return fmt.Errorf("S3_REGION must be set when STORAGE_TYPE=s3")
		}
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.Storage.Type == "memory" {
			return fmt.Errorf("in prod/release STORAGE_TYPE=memory is not allowed")
		}
	}

	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
