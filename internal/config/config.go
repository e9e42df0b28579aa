package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the API process.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	Push     PushConfig     `mapstructure:"push"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Matching MatchingConfig `mapstructure:"matching"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	BaseURL         string        `mapstructure:"base_url"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	MaxQueryDepth   int           `mapstructure:"max_query_depth"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN builds the Postgres connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig is optional; an empty URL keeps claims and fan-out in process.
type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

func (c RedisConfig) Enabled() bool { return c.URL != "" }

type AuthConfig struct {
	// Mode is "firebase" or "jwt".
	Mode      string `mapstructure:"mode"`
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

type FirebaseConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	ProjectID       string `mapstructure:"project_id"`
}

func (c FirebaseConfig) Enabled() bool { return c.CredentialsFile != "" }

type PushConfig struct {
	ExpoAccessToken string        `mapstructure:"expo_access_token"`
	Timeout         time.Duration `mapstructure:"timeout"`
	AndroidChannel  string        `mapstructure:"android_channel"`
}

type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TrackerConfig struct {
	ProximityMeters   float64       `mapstructure:"proximity_meters"`
	StateTTL          time.Duration `mapstructure:"state_ttl"`
	NotifyConcurrency int           `mapstructure:"notify_concurrency"`
}

type MatchingConfig struct {
	EnforceCapacity bool          `mapstructure:"enforce_capacity"`
	PickupWindow    time.Duration `mapstructure:"pickup_window"`
}

// KafkaConfig is optional; without brokers trip events are only logged.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 && c.Topic != "" }

type StorageConfig struct {
	S3Bucket  string `mapstructure:"s3_bucket"`
	S3Region  string `mapstructure:"s3_region"`
	UploadDir string `mapstructure:"upload_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads .env (if present), config.yaml (if present) and CARPOOL_* env vars.
// Env vars win over the file, the file wins over defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CARPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.max_query_depth", 12)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "carpool")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 100)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", "1h")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.channel", "carpool:fanout")

	v.SetDefault("auth.mode", "firebase")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "carpool-backend")

	v.SetDefault("firebase.credentials_file", "")
	v.SetDefault("firebase.project_id", "")

	v.SetDefault("push.expo_access_token", "")
	v.SetDefault("push.timeout", "5s")
	v.SetDefault("push.android_channel", "carpool_default")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", "4s")

	v.SetDefault("tracker.proximity_meters", 50.0)
	v.SetDefault("tracker.state_ttl", "12h")
	v.SetDefault("tracker.notify_concurrency", 8)

	v.SetDefault("matching.enforce_capacity", true)
	v.SetDefault("matching.pickup_window", "1h")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "carpool.trip-events")

	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "")
	v.SetDefault("storage.upload_dir", "./uploads")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535"))
	}
	switch c.Auth.Mode {
	case "firebase":
		if !c.Firebase.Enabled() {
			errs = append(errs, fmt.Errorf("auth.mode=firebase requires firebase.credentials_file"))
		}
	case "jwt":
		if len(c.Auth.JWTSecret) < 16 {
			errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least 16 characters"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be firebase or jwt, got %q", c.Auth.Mode))
	}
	if c.Tracker.ProximityMeters <= 0 {
		errs = append(errs, fmt.Errorf("tracker.proximity_meters must be positive"))
	}
	if c.Tracker.NotifyConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("tracker.notify_concurrency must be positive"))
	}
	return errors.Join(errs...)
}
