package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const defaultChatDBPath = "~/Library/Messages/chat.db"

type Config struct {
	Port         int
	APIBaseURL   string
	ChatDBPath   string
	Model        string
	Contacts     []string
	PollInterval time.Duration
	MaxHistory   int
	SentTTL      time.Duration
	LLMTimeout   time.Duration
	SendTimeout  time.Duration
	NatsURL      string
	NatsToken    string
	LogLevel     string
}

func Load() Config {
	return Config{
		Port:         envInt("IMSGBOT_PORT", 8765),
		APIBaseURL:   envStr("IMSGBOT_API_URL", "http://127.0.0.1:8080/api/v1"),
		ChatDBPath:   expandHome(envStr("IMSGBOT_DB_PATH", defaultChatDBPath)),
		Model:        envStr("IMSGBOT_MODEL", "base"),
		Contacts:     envList("IMSGBOT_CONTACTS"),
		PollInterval: envDuration("IMSGBOT_POLL_INTERVAL", time.Second),
		MaxHistory:   envInt("IMSGBOT_MAX_HISTORY", 10),
		SentTTL:      envDuration("IMSGBOT_SENT_TTL", 60*time.Second),
		LLMTimeout:   envDuration("IMSGBOT_LLM_TIMEOUT", 60*time.Second),
		SendTimeout:  envDuration("IMSGBOT_SEND_TIMEOUT", 30*time.Second),
		NatsURL:      envStr("NATS_URL", ""),
		NatsToken:    envStr("NATS_TOKEN", ""),
		LogLevel:     envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping blank items.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
