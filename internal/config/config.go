package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port int

	// Token signing
	JWTSecret        string
	JWTAccessTTLMins int

	// Store backend: "file" (default) or "postgres"
	StoreBackend string
	ContactsFile string
	UsersFile    string
	DBURL        string

	// Avatars: local dir by default, S3 when a bucket is set
	AvatarDir    string
	AvatarBucket string
	AvatarRegion string

	// Welcome-notification queue (optional)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Tracing (optional)
	OTLPEndpoint string
}

func Load() Config {
	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTLMins: getEnvInt("JWT_ACCESS_TTL_MINUTES", 60),

		StoreBackend: getEnv("STORE_BACKEND", "file"),
		ContactsFile: getEnv("CONTACTS_FILE", "data/contacts.json"),
		UsersFile:    getEnv("USERS_FILE", "data/users.json"),
		DBURL:        buildDBURL(),

		AvatarDir:    getEnv("AVATAR_DIR", "uploads"),
		AvatarBucket: getEnv("AVATAR_BUCKET", ""),
		AvatarRegion: getEnv("AVATAR_REGION", "us-east-1"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	if url := getEnv("DATABASE_URL", ""); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "contacthub")
	pass := getEnv("DB_PASSWORD", "contacthub")
	name := getEnv("DB_NAME", "contacthub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// AccessTTL is the absolute token lifetime (1 hour unless overridden).
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMins) * time.Minute
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}
