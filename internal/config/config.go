package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendRedis     = "redis"
	BackendPostgres  = "postgres"
)

type Config struct {
	Port string

	Store StoreConfig

	Reminders RemindersConfig
	Notify    NotifyConfig

	Client ClientConfig
	Log    LogConfig
}

type StoreConfig struct {
	Backend string

	ProjectID  string
	Collection string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatabaseURL string
}

type RemindersConfig struct {
	Enabled       bool
	FollowUpDelay time.Duration
}

type NotifyConfig struct {
	Backend      string
	ChannelToken string
	LineUserID   string
}

type ClientConfig struct {
	APIURL       string
	PollInterval time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

// LoadDotEnv reads a .env file into the process environment if one exists.
// It reports whether a file was found.
func LoadDotEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// Load reads settings from the environment. defaultNotifier differs between
// the server and the client binaries.
func Load(defaultNotifier string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("FIRESTORE_COLLECTION", "tasks")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REMINDERS_ENABLED", false)
	v.SetDefault("FOLLOW_UP_DELAY", time.Hour)
	v.SetDefault("NOTIFIER", defaultNotifier)
	v.SetDefault("API_URL", "http://localhost:8080")
	v.SetDefault("POLL_INTERVAL", 30*time.Second)
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Port: v.GetString("PORT"),
		Store: StoreConfig{
			Backend:       strings.ToLower(v.GetString("STORE_BACKEND")),
			ProjectID:     v.GetString("GOOGLE_CLOUD_PROJECT"),
			Collection:    v.GetString("FIRESTORE_COLLECTION"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			DatabaseURL:   v.GetString("DATABASE_URL"),
		},
		Reminders: RemindersConfig{
			Enabled:       v.GetBool("REMINDERS_ENABLED"),
			FollowUpDelay: v.GetDuration("FOLLOW_UP_DELAY"),
		},
		Notify: NotifyConfig{
			Backend:      strings.ToLower(v.GetString("NOTIFIER")),
			ChannelToken: v.GetString("LINE_CHANNEL_TOKEN"),
			LineUserID:   v.GetString("LINE_USER_ID"),
		},
		Client: ClientConfig{
			APIURL:       strings.TrimRight(v.GetString("API_URL"), "/"),
			PollInterval: v.GetDuration("POLL_INTERVAL"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis:
	case BackendFirestore:
		if c.Store.ProjectID == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required for the firestore backend")
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	if c.Notify.Backend == "line" && (c.Notify.ChannelToken == "" || c.Notify.LineUserID == "") {
		return fmt.Errorf("LINE_CHANNEL_TOKEN and LINE_USER_ID are required for the line notifier")
	}
	if c.Reminders.FollowUpDelay <= 0 {
		return fmt.Errorf("FOLLOW_UP_DELAY must be positive")
	}
	if c.Client.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	return nil
}
