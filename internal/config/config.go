package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Redis     RedisConfig
	MQTT      MQTTConfig
	Kafka     KafkaConfig
	Device    DeviceConfig
	Dispatch  DispatchConfig
	Seed      SeedConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// RedisConfig points at the live robot state cache. Empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	StateTTL time.Duration
}

type MQTTConfig struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	TopicPrefix       string
	QoS               byte
	IngestionWorkers  int
	IngestionBuffer   int
	PublishEvents     bool
	IngestTelemetry   bool
	KeepAliveSeconds  int
	ConnectTimeoutSec int
}

type KafkaConfig struct {
	Brokers     []string
	EventsTopic string
}

type DeviceConfig struct {
	CommandTimeout time.Duration
}

// DispatchConfig holds defaults applied to newly registered robots.
type DispatchConfig struct {
	DefaultBatteryCapacityJ  float64
	DefaultEnergyPerMeterJ   float64
	DefaultDeviceCommandPort int
}

type SeedConfig struct {
	NodesFile string
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 20)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)
	viper.SetDefault("REDIS_STATE_TTL", "10m")
	viper.SetDefault("MQTT_CLIENT_ID", "robot-dispatch")
	viper.SetDefault("MQTT_TOPIC_PREFIX", "dispatch")
	viper.SetDefault("MQTT_QOS", 1)
	viper.SetDefault("MQTT_INGESTION_WORKERS", 4)
	viper.SetDefault("MQTT_INGESTION_BUFFER", 1024)
	viper.SetDefault("MQTT_KEEPALIVE_SECONDS", 30)
	viper.SetDefault("MQTT_CONNECT_TIMEOUT_SECONDS", 10)
	viper.SetDefault("KAFKA_EVENTS_TOPIC", "dispatch.events")
	viper.SetDefault("DEVICE_COMMAND_TIMEOUT", "10s")
	viper.SetDefault("DISPATCH_DEFAULT_BATTERY_CAPACITY_J", 500000)
	viper.SetDefault("DISPATCH_DEFAULT_ENERGY_PER_METER_J", 50)
	viper.SetDefault("DISPATCH_DEFAULT_DEVICE_PORT", 8081)
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASSWORD"),
			DBName:      viper.GetString("DB_NAME"),
			SSLMode:     viper.GetString("DB_SSLMODE"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: viper.GetInt("JWT_EXPIRY_HOURS"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			StateTTL: viper.GetDuration("REDIS_STATE_TTL"),
		},
		MQTT: MQTTConfig{
			Broker:            viper.GetString("MQTT_BROKER"),
			ClientID:          viper.GetString("MQTT_CLIENT_ID"),
			Username:          viper.GetString("MQTT_USERNAME"),
			Password:          viper.GetString("MQTT_PASSWORD"),
			TopicPrefix:       viper.GetString("MQTT_TOPIC_PREFIX"),
			QoS:               byte(viper.GetUint("MQTT_QOS")),
			IngestionWorkers:  viper.GetInt("MQTT_INGESTION_WORKERS"),
			IngestionBuffer:   viper.GetInt("MQTT_INGESTION_BUFFER"),
			PublishEvents:     viper.GetBool("MQTT_PUBLISH_EVENTS"),
			IngestTelemetry:   viper.GetBool("MQTT_INGEST_TELEMETRY"),
			KeepAliveSeconds:  viper.GetInt("MQTT_KEEPALIVE_SECONDS"),
			ConnectTimeoutSec: viper.GetInt("MQTT_CONNECT_TIMEOUT_SECONDS"),
		},
		Kafka: KafkaConfig{
			Brokers:     viper.GetStringSlice("KAFKA_BROKERS"),
			EventsTopic: viper.GetString("KAFKA_EVENTS_TOPIC"),
		},
		Device: DeviceConfig{
			CommandTimeout: viper.GetDuration("DEVICE_COMMAND_TIMEOUT"),
		},
		Dispatch: DispatchConfig{
			DefaultBatteryCapacityJ:  viper.GetFloat64("DISPATCH_DEFAULT_BATTERY_CAPACITY_J"),
			DefaultEnergyPerMeterJ:   viper.GetFloat64("DISPATCH_DEFAULT_ENERGY_PER_METER_J"),
			DefaultDeviceCommandPort: viper.GetInt("DISPATCH_DEFAULT_DEVICE_PORT"),
		},
		Seed: SeedConfig{
			NodesFile: viper.GetString("NODES_SEED_FILE"),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
