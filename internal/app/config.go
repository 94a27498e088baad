package app

import (
	"os"
	"strings"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr     string
	MetricsAddr  string
	DatabaseDSN  string
	KafkaBrokers []string
}

// DefaultConfig возвращает базовые адреса для API и HTTP-метрик.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
	}
}

// ConfigFromEnv формирует конфигурацию, позволяя переопределить значения
// через переменные окружения.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("ORDERS_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("ORDERS_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("ORDERS_DB_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	return cfg
}
