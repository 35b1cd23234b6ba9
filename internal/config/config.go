package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"Server"`
	Database DatabaseConfig `mapstructure:"Database"`
	Security SecurityConfig `mapstructure:"Security"`
	Storage  StorageConfig  `mapstructure:"Storage"`
}

type ServerConfig struct {
	Port string `mapstructure:"Port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"Host"`
	Port     string `mapstructure:"Port"`
	User     string `mapstructure:"User"`
	Password string `mapstructure:"Password"`
	Name     string `mapstructure:"Name"`
	SSLMode  string `mapstructure:"SSLMode"`
}

type SecurityConfig struct {
	// EncryptionKey is the hex-encoded 256-bit key for payload encryption.
	// Losing it makes every stored file unreadable.
	EncryptionKey string `mapstructure:"EncryptionKey"`
	JWTSecret     string `mapstructure:"JWTSecret"`
}

type StorageConfig struct {
	// AllowedExtensions is the upload allow-list, comma separated, lowercase,
	// without dots.
	AllowedExtensions string `mapstructure:"AllowedExtensions"`
	MaxUploadBytes    int64  `mapstructure:"MaxUploadBytes"`
	TrashRetention    string `mapstructure:"TrashRetention"`
}

const defaultAllowedExtensions = "txt,md,csv,json,xml,log,pdf,doc,docx,xls,xlsx,ppt,pptx,odt,jpg,jpeg,png,gif,webp,svg,zip,tar,gz"

func NewConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	v.BindEnv("Database.Host", "DATABASE_HOST")
	v.BindEnv("Database.Port", "DATABASE_PORT")
	v.BindEnv("Database.User", "DATABASE_USER")
	v.BindEnv("Database.Password", "DATABASE_PASSWORD")
	v.BindEnv("Database.Name", "DATABASE_NAME")
	v.BindEnv("Database.SSLMode", "DATABASE_SSLMODE")
	v.BindEnv("Server.Port", "HTTP_PORT")
	v.BindEnv("Security.EncryptionKey", "ENCRYPTION_KEY")
	v.BindEnv("Security.JWTSecret", "JWT_SECRET")
	v.BindEnv("Storage.AllowedExtensions", "ALLOWED_EXTENSIONS")
	v.BindEnv("Storage.MaxUploadBytes", "MAX_UPLOAD_BYTES")
	v.BindEnv("Storage.TrashRetention", "TRASH_RETENTION")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Host == "" ||
		cfg.Database.Port == "" ||
		cfg.Database.User == "" ||
		cfg.Database.Name == "" {
		return nil, fmt.Errorf("database configuration is incomplete: host=%s, port=%s, user=%s, name=%s",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Name)
	}

	if cfg.Security.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Storage.AllowedExtensions == "" {
		cfg.Storage.AllowedExtensions = defaultAllowedExtensions
	}
	if cfg.Storage.MaxUploadBytes == 0 {
		cfg.Storage.MaxUploadBytes = 100 * 1024 * 1024 // 100MB
	}
	if cfg.Storage.TrashRetention == "" {
		cfg.Storage.TrashRetention = "720h" // 30 days
	}

	return &cfg, nil
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// AllowedExtensionSet parses the allow-list into a lookup set.
func (c *StorageConfig) AllowedExtensionSet() map[string]bool {
	set := make(map[string]bool)
	for _, ext := range strings.Split(c.AllowedExtensions, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}

// TrashRetentionDuration falls back to 30 days on a malformed value.
func (c *StorageConfig) TrashRetentionDuration() time.Duration {
	d, err := time.ParseDuration(c.TrashRetention)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}
