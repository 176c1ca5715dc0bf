package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Media      MediaConfig      `mapstructure:"media"`
	Membership MembershipConfig `mapstructure:"membership"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	UploadRPS       int    `mapstructure:"upload_rps"`
	UploadBurst     int    `mapstructure:"upload_burst"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
	Issuer      string `mapstructure:"issuer"`
	OTPTTL      int    `mapstructure:"otp_ttl"`
}

// MediaConfig is the explicit configuration for the upload pipeline. There is
// no module-level mutable state; everything the orchestrator needs arrives here.
type MediaConfig struct {
	QuarantineDir   string `mapstructure:"quarantine_dir"`
	PhotosDir       string `mapstructure:"photos_dir"`
	CertificatesDir string `mapstructure:"certificates_dir"`
	HoroscopesDir   string `mapstructure:"horoscopes_dir"`
	ThumbnailsDir   string `mapstructure:"thumbnails_dir"`

	MaxPhotoBytes    int64 `mapstructure:"max_photo_bytes"`
	MaxDocumentBytes int64 `mapstructure:"max_document_bytes"`

	PhotoMimeTypes    []string `mapstructure:"photo_mime_types"`
	DocumentMimeTypes []string `mapstructure:"document_mime_types"`

	ScannerCommand []string      `mapstructure:"scanner_command"`
	ScannerTimeout time.Duration `mapstructure:"scanner_timeout"`

	PhotoQuality  int `mapstructure:"photo_quality"`
	ThumbnailSize int `mapstructure:"thumbnail_size"`
}

type MembershipConfig struct {
	// Cron spec for the expiry sweep, e.g. "0 2 * * *".
	ExpirySweepSchedule string `mapstructure:"expiry_sweep_schedule"`
}

type LoggerConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	AddCaller bool   `mapstructure:"add_caller"`
}

func Load(name string) (*Config, error) {
	viper.SetConfigName(name)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/sangamam")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("SANGAMAM")

	if err := viper.ReadInConfig(); err != nil {
		// Defaults plus env vars are enough to run; only a malformed file is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 60)
	viper.SetDefault("server.shutdown_timeout", 30)
	viper.SetDefault("server.upload_rps", 2)
	viper.SetDefault("server.upload_burst", 5)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "sangamam")
	viper.SetDefault("database.password", "sangamam")
	viper.SetDefault("database.name", "sangamam")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 25)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)

	viper.SetDefault("auth.jwt_secret", "development-secret-change-in-production")
	viper.SetDefault("auth.expiry_hours", 24)
	viper.SetDefault("auth.issuer", "sangamam")
	viper.SetDefault("auth.otp_ttl", 600)

	viper.SetDefault("media.quarantine_dir", "./data/quarantine")
	viper.SetDefault("media.photos_dir", "./data/photos")
	viper.SetDefault("media.certificates_dir", "./data/certificates")
	viper.SetDefault("media.horoscopes_dir", "./data/horoscopes")
	viper.SetDefault("media.thumbnails_dir", "./data/thumbnails")
	viper.SetDefault("media.max_photo_bytes", 10*1024*1024)
	viper.SetDefault("media.max_document_bytes", 10*1024*1024)
	viper.SetDefault("media.photo_mime_types", []string{
		"image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif",
	})
	viper.SetDefault("media.document_mime_types", []string{
		"application/pdf", "image/jpeg", "image/jpg", "image/png",
	})
	viper.SetDefault("media.scanner_command", []string{"clamdscan", "--no-summary"})
	viper.SetDefault("media.scanner_timeout", 30*time.Second)
	viper.SetDefault("media.photo_quality", 85)
	viper.SetDefault("media.thumbnail_size", 150)

	viper.SetDefault("membership.expiry_sweep_schedule", "0 2 * * *")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("logger.output", "stdout")
	viper.SetDefault("logger.add_caller", true)
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
