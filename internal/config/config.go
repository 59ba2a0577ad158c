package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	API       APIConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

type LogConfig struct {
	Mode  string
	Level string
}

type SchedulerConfig struct {
	AlertTickInterval time.Duration
	AlertBatchSize    int
	AlertConcurrency  int
	TTLSweepInterval  time.Duration
}

type APIConfig struct {
	DefaultListLimit int
	MaxListLimit     int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	env := getEnv("ENV", "development")
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  env,
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "postgres"),
			DBName:     getEnv("DB_NAME", "job_board"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "job_board.db"),
		},
		Log: LogConfig{
			Mode:  getEnv("LOG_MODE", env),
			Level: getEnv("LOG_LEVEL", ""),
		},
		Scheduler: SchedulerConfig{
			AlertTickInterval: getEnvAsDuration("ALERT_TICK_INTERVAL", "1m"),
			AlertBatchSize:    getEnvAsInt("ALERT_BATCH_SIZE", 100),
			AlertConcurrency:  getEnvAsInt("ALERT_CONCURRENCY", 3),
			TTLSweepInterval:  getEnvAsDuration("TTL_SWEEP_INTERVAL", "1h"),
		},
		API: APIConfig{
			DefaultListLimit: getEnvAsInt("DEFAULT_LIST_LIMIT", 20),
			MaxListLimit:     getEnvAsInt("MAX_LIST_LIMIT", 100),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
