package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Admin    AdminConfig
	Raffle   RaffleConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// RedisConfig is optional; an empty Addr disables the rate limiter and the
// purchase idempotency cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AdminConfig struct {
	User      string
	Password  string
	JWTSecret string
}

type RaffleConfig struct {
	TicketCount int
	PublicDir   string
	UploadDir   string
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := intEnv("SERVER_PORT", 3000)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	serverCfg := ServerConfig{
		Host: os.Getenv("SERVER_HOST"),
		Port: serverPort,
	}

	postgresPort, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     stringEnv("POSTGRES_HOST", "localhost"),
		Port:     postgresPort,
		SSLMode:  stringEnv("POSTGRES_SSLMODE", "disable"),
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	adminCfg := AdminConfig{
		User:      stringEnv("ADMIN_USER", "admin"),
		Password:  stringEnv("ADMIN_PASS", "rifa2024"),
		JWTSecret: stringEnv("JWT_SECRET", "secret"),
	}

	ticketCount, err := intEnv("TICKET_COUNT", 400)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	if ticketCount < 1 {
		return nil, fmt.Errorf("%s: TICKET_COUNT must be positive", op)
	}

	raffleCfg := RaffleConfig{
		TicketCount: ticketCount,
		PublicDir:   stringEnv("PUBLIC_DIR", "public"),
		UploadDir:   stringEnv("UPLOAD_DIR", "public/uploads"),
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Admin:    adminCfg,
		Raffle:   raffleCfg,
	}, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return n, nil
}
