package app

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// StorageDriver выбирает backend документов.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverFile     StorageDriver = "file"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки запуска витрины.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	DataDir             string
	PostgresDSN         string
	PostgresAutoMigrate bool
	SeedCatalog         bool

	AdminUser     string
	AdminPassword string

	KafkaBrokers  []string
	DeliveryTopic string

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает настройки по умолчанию: файловое хранилище в ./data
// и демонстрационный каталог при первом запуске.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverFile,
		DataDir:             "data",
		PostgresAutoMigrate: true,
		SeedCatalog:         true,
		AdminUser:           "admin",
		DeliveryTopic:       kafka.TopicDeliveryEvents,
		ShutdownTimeout:     5 * time.Second,
	}
}
