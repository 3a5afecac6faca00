package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every environment-driven setting. Variable names match
// the original deployment so existing env files keep working.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	GeoIPDB        string
	ThreatFeedFile string

	SendEmail      bool
	SMTPServer     string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	AlertRecipient string
	AlertCooldown  time.Duration
}

// Load reads environment variables and returns a Config.
func Load() *Config {
	return &Config{
		HTTPAddr:       getEnv("SIEM_HTTP_ADDR", ":8080"),
		MetricsAddr:    getEnv("SIEM_METRICS_ADDR", ":9090"),
		GeoIPDB:        getEnv("GEOIP_DB", "GeoLite2-City.mmdb"),
		ThreatFeedFile: getEnv("THREAT_FEED_FILE", "threat_feeds.txt"),
		SendEmail:      getEnv("SEND_EMAIL", "0") == "1",
		SMTPServer:     getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),
		AlertRecipient: getEnv("ALERT_RECIPIENT", ""),
		AlertCooldown:  time.Duration(getEnvInt("ALERT_EMAIL_COOLDOWN", 600)) * time.Second,
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
