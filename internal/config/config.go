package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type Config struct {
	Env           string
	HTTPAddr      string
	DatabaseURL   string
	JWTSecret     []byte
	RefreshSecret []byte
	LogLevel      string
	ESURL         string
	ESUser        string
	ESPassword    string
	KafkaAddress  string
	BcryptCost    int
}

// Load reads .env when present and falls back to the process environment.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment variables", err)
	}

	cfg := &Config{
		Env:           getenv("ENV", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret: []byte(os.Getenv("REFRESH_SECRET")),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		ESURL:         os.Getenv("ES_URL"),
		ESUser:        os.Getenv("ES_USER"),
		ESPassword:    os.Getenv("ES_PASSWORD"),
		KafkaAddress:  os.Getenv("KAFKA_ADDRESS"),
		BcryptCost:    getenvInt("BCRYPT_COST", 10),
	}

	mustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	mustNonEmpty(string(cfg.JWTSecret), "JWT_SECRET")
	mustNonEmpty(string(cfg.RefreshSecret), "REFRESH_SECRET")

	return cfg
}

func mustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func (c *Config) Production() bool { return c.Env == "production" }

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getenvInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", name, err)
	}
	return n
}
