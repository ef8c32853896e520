package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBDSN        string
	LogFile      string
	LogLevel     string
	KafkaBrokers []string
	KafkaTopic   string
	SeedDemo     bool
	CookieSecure bool
}

// Load reads the environment, after merging an optional .env file.
// Variables already set in the environment win over .env entries.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:         getenv("PORT", "8080"),
		DBDSN:        getenv("DB_DSN", "milkpoint.db"), // sqlite file in project root
		LogFile:      os.Getenv("LOG_FILE"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getenv("KAFKA_TOPIC", "milkpoint.events"),
		SeedDemo:     getbool("SEED_DEMO", true),
		CookieSecure: getbool("COOKIE_SECURE", false),
	}
}

// Fields renders the config for the startup log line.
func (c Config) Fields() map[string]any {
	return map[string]any{
		"port":          c.Port,
		"db_dsn":        c.DBDSN,
		"log_file":      c.LogFile,
		"log_level":     c.LogLevel,
		"kafka_brokers": strings.Join(c.KafkaBrokers, ","),
		"kafka_topic":   c.KafkaTopic,
		"seed_demo":     c.SeedDemo,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
