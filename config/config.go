package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port      string
	JWTSecret string

	// Remote backend. Leaving DatabaseURL or StorageEndpoint empty selects
	// the local data layer instead of the hosted one.
	DatabaseURL      string
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool

	// Handle granted administrative rights. Empty means no admin.
	AdminHandle string

	// Local mode snapshot directory.
	DataDir string

	// Email Configuration (welcome mail, optional)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

func Load() *Config {
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "2525"))
	useSSL, _ := strconv.ParseBool(getEnv("STORAGE_USE_SSL", "false"))

	return &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key"),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", ""),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", "instafacts-media"),
		StorageUseSSL:    useSSL,

		AdminHandle: getEnv("ADMIN_HANDLE", ""),
		DataDir:     getEnv("DATA_DIR", "./data"),

		// Email settings
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@instafacts.app"),
		FromName:     getEnv("FROM_NAME", "InstaFacts"),
	}
}

// RemoteConfigured reports whether the hosted backend settings are present.
// Their absence is not an error, it selects the local fallback.
func (c *Config) RemoteConfigured() bool {
	return c.DatabaseURL != "" && c.StorageEndpoint != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
