package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Booking  BookingConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// BookingConfig carries the capacity-core knobs: how long a lock holds
// capacity before the sweeper reclaims it, and how often the sweeper runs.
type BookingConfig struct {
	DefaultLockTTL  time.Duration
	MaxLockTTL      time.Duration
	SweepInterval   time.Duration
	EventStreamKey  string
	AvailabilityTTL time.Duration
}

var AppConfig *Config

func LoadConfig() *Config {
	AppConfig = &Config{
		Server:   GetServerConfig(),
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		Booking:  GetBookingConfig(),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8081",
			Mode: "test",
		},
		Database: DatabaseConfig{
			Host:     getEnv("TEST_DB_HOST", "localhost"),
			Port:     getEnv("TEST_DB_PORT", "5433"),
			User:     "postgres",
			Password: "postgres",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host:     getEnv("TEST_REDIS_HOST", "localhost"),
			Port:     getEnv("TEST_REDIS_PORT", "6380"),
			Password: "",
			DB:       1,
		},
		Booking: BookingConfig{
			DefaultLockTTL:  2 * time.Minute,
			MaxLockTTL:      10 * time.Minute,
			SweepInterval:   time.Second,
			EventStreamKey:  "bookings:events:test",
			AvailabilityTTL: time.Minute,
		},
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnv("SERVER_PORT", "8080"),
		Mode: getEnv("GIN_MODE", "release"),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetBookingConfig() BookingConfig {
	return BookingConfig{
		DefaultLockTTL:  getEnvSeconds("LOCK_TTL_SECONDS", 120),
		MaxLockTTL:      getEnvSeconds("LOCK_MAX_TTL_SECONDS", 600),
		SweepInterval:   getEnvSeconds("LOCK_SWEEP_INTERVAL_SECONDS", 60),
		EventStreamKey:  getEnv("BOOKING_EVENT_STREAM", "bookings:events"),
		AvailabilityTTL: getEnvSeconds("AVAILABILITY_CACHE_TTL_SECONDS", 300),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	raw := getEnv(key, strconv.Itoa(fallback))
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
