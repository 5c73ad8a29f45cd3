package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DB         DBConfig
	MinIO      MinIOConfig
	JWT        JWTConfig
	Server     ServerConfig
	Audit      AuditConfig
	Classifier ClassifierConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port      string
	BodyLimit int
}

type AuditConfig struct {
	QueueSize int
}

// ClassifierConfig points at an optional JSON rule file. When RulesPath is
// empty the built-in rule set is used.
type ClassifierConfig struct {
	RulesPath string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "filedepot"),
			Password: getEnv("DB_PASSWORD", "filedepot_secret"),
			Name:     getEnv("DB_NAME", "filedepot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "filedepot"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "filedepot_secret"),
			Bucket:    getEnv("MINIO_BUCKET", "filedepot"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port:      getEnv("SERVER_PORT", "8080"),
			BodyLimit: getEnvAsInt("SERVER_BODY_LIMIT_MB", 100) * 1024 * 1024,
		},
		Audit: AuditConfig{
			QueueSize: getEnvAsInt("ACCESS_LOG_QUEUE_SIZE", 1000),
		},
		Classifier: ClassifierConfig{
			RulesPath: getEnv("CLASSIFIER_RULES_PATH", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
