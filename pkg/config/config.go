package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
	}
	RabbitMQ struct {
		Host     string
		Port     int
		User     string
		Password string
	}
	HTTP struct {
		Port int
	}
	JWT struct {
		Secret   string
		TokenTTL time.Duration
	}
	Scheduler struct {
		ReminderInterval   time.Duration // how often the reminder sweep runs
		ReminderWindow     time.Duration // how far ahead of departure reminders fire
		ReconciliationHour int           // hour of day (0-23) for the daily job
		StaleRideAge       time.Duration // IN_PROGRESS rides older than this get auto-completed
		RetentionAge       time.Duration // terminal rides older than this get deleted
	}
}

func LoadConfig(filename string) (*Config, error) {
	err := loadEnvFile(filename)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnvAsInt("DB_PORT", 5432)
	cfg.DB.User = getEnv("DB_USER", "campusrides_user")
	cfg.DB.Password = getEnv("DB_PASS", "campusrides_pass")
	cfg.DB.Database = getEnv("DB_NAME", "campusrides_db")
	cfg.RabbitMQ.Host = getEnv("RABBITMQ_HOST", "localhost")
	cfg.RabbitMQ.Port = getEnvAsInt("RABBITMQ_PORT", 5672)
	cfg.RabbitMQ.User = getEnv("RABBITMQ_USER", "guest")
	cfg.RabbitMQ.Password = getEnv("RABBITMQ_PASS", "guest")
	cfg.HTTP.Port = getEnvAsInt("HTTP_PORT", 3000)
	cfg.JWT.Secret = getEnv("JWT_SECRET", "change-me")
	cfg.JWT.TokenTTL = getEnvAsDuration("JWT_TOKEN_TTL", 24*time.Hour)
	cfg.Scheduler.ReminderInterval = getEnvAsDuration("SCHEDULER_REMINDER_INTERVAL", 5*time.Minute)
	cfg.Scheduler.ReminderWindow = getEnvAsDuration("SCHEDULER_REMINDER_WINDOW", 30*time.Minute)
	cfg.Scheduler.ReconciliationHour = getEnvAsInt("SCHEDULER_RECONCILIATION_HOUR", 1)
	cfg.Scheduler.StaleRideAge = getEnvAsDuration("SCHEDULER_STALE_RIDE_AGE", 24*time.Hour)
	cfg.Scheduler.RetentionAge = getEnvAsDuration("SCHEDULER_RETENTION_AGE", 30*24*time.Hour)

	return cfg, nil
}

func loadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("could not open env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		// Trim spaces and ignore comments or empty lines
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Split into key=value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove optional surrounding quotes
		value = strings.Trim(value, `"'`)

		err := os.Setenv(key, value)
		if err != nil {
			return fmt.Errorf("could not set env var %s: %w", key, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading env file: %w", err)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
