package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	ProjectID      string
	Port           string
	AllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	ProbeAddr     string
	ProbeInterval time.Duration

	ReminderDelay time.Duration
}

func Load() Config {
	projectID := getenv("FIREBASE_PROJECT_ID", "")
	if projectID == "" {
		projectID = getenv("GOOGLE_CLOUD_PROJECT", "")
	}

	port := getenv("PORT", "8080")
	origins := getenv("ALLOWED_ORIGINS", "http://localhost:3000")

	allowed := []string{}
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed = append(allowed, o)
		}
	}

	return Config{
		ProjectID:      projectID,
		Port:           port,
		AllowedOrigins: allowed,
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		RedisDB:        0,
		CacheTTL:       getdur("CACHE_TTL", 7*24*time.Hour),
		ProbeAddr:      getenv("CONNECTIVITY_PROBE_ADDR", "firestore.googleapis.com:443"),
		ProbeInterval:  getdur("CONNECTIVITY_PROBE_INTERVAL", 15*time.Second),
		ReminderDelay:  getdur("VOTE_REMINDER_DELAY", 24*time.Hour),
	}
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
