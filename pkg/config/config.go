package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // Load environment variables from .env file

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // .env file is optional

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return nil
}

// Config holds the configuration for the application
type Config struct {
	Market      string               `env:"MARKET,required"` // Trading pair, e.g., BTC/USD
	BookConfig  `envPrefix:"BOOK_"`  // Order book sizing
	KafkaConfig `envPrefix:"KAFKA_"` // Kafka configuration
	RedisConfig `envPrefix:"REDIS_"` // Redis configuration
}

// BookConfig holds the sizing knobs for the order book slabs and event queue.
type BookConfig struct {
	// Capacity is the maximum number of resting orders per side.
	Capacity uint32 `env:"CAPACITY" envDefault:"4096"`
	// EventQueueCapacity is the number of undrained events the queue holds
	// before appends are rejected.
	EventQueueCapacity int `env:"EVENT_QUEUE_CAPACITY" envDefault:"8192"`
}

// KafkaConfig holds the configuration for Kafka consumer and producer.
type KafkaConfig struct {
	OrderTopic string   `env:"ORDER_TOPIC,required"`
	EventTopic string   `env:"EVENT_TOPIC,required"`
	GroupID    string   `env:"GROUP_ID" envDefault:"default_group"`
	Brokers    []string `env:"BROKER,required"`
}

// RedisConfig holds the configuration for Redis client.
type RedisConfig struct {
	Addrs    string `env:"ADDRESS,required"` // Comma-separated list of Redis addresses
	Password string `env:"PASSWORD" envDefault:""`
	Username string `env:"USERNAME" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}
