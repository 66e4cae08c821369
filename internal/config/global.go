package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"planet-permission-service/internal/utils/runtime"
)

const (
	kafkaHostFlag      = "kafka-host"
	kafkaPortFlag      = "kafka-port"
	kafkaTopicFlag     = "kafka-topic"
	storageBackendFlag = "storage-backend"
	mongoDBURIFlag     = "mongodb-uri"
	postgresDSNFlag    = "postgres-dsn"
	cacheBackendFlag   = "cache-backend"
	cacheSizeFlag      = "cache-size"
	cacheTTLFlag       = "cache-ttl"
	redisURLFlag       = "redis-url"
	developmentFlag    = "development"
	grpcPortFlag       = "port"
	metricsPortFlag    = "metrics-port"
)

const (
	StorageMongoDB  = "mongodb"
	StoragePostgres = "postgres"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

var flags = []string{kafkaHostFlag, kafkaPortFlag, kafkaTopicFlag, storageBackendFlag, mongoDBURIFlag,
	postgresDSNFlag, cacheBackendFlag, cacheSizeFlag, cacheTTLFlag, redisURLFlag, developmentFlag, grpcPortFlag,
	metricsPortFlag}

type Config struct {
	Kafka    KafkaConfig
	Storage  StorageConfig
	MongoDB  MongoDBConfig
	Postgres PostgresConfig
	Cache    CacheConfig

	Development bool

	GRPCPort    int
	MetricsPort int
}

type KafkaConfig struct {
	Host  string
	Port  int
	Topic string
}

type StorageConfig struct {
	Backend string
}

type MongoDBConfig struct {
	URI string
}

type PostgresConfig struct {
	DSN string
}

type CacheConfig struct {
	Backend  string
	Size     int
	TTL      time.Duration
	RedisURL string
}

func LoadGlobalConfig() (*Config, error) {
	viper.SetDefault(kafkaHostFlag, "localhost")
	viper.SetDefault(kafkaPortFlag, 9092)
	viper.SetDefault(kafkaTopicFlag, "planet-permissions")
	viper.SetDefault(storageBackendFlag, StorageMongoDB)
	viper.SetDefault(mongoDBURIFlag, "mongodb://localhost:27017")
	viper.SetDefault(postgresDSNFlag, "postgres://localhost:5432/planet_permissions?sslmode=disable")
	viper.SetDefault(cacheBackendFlag, CacheMemory)
	viper.SetDefault(cacheSizeFlag, 100_000)
	viper.SetDefault(cacheTTLFlag, 5*time.Minute)
	viper.SetDefault(redisURLFlag, "redis://localhost:6379/0")
	viper.SetDefault(developmentFlag, true)
	viper.SetDefault(grpcPortFlag, 10010)
	viper.SetDefault(metricsPortFlag, 8081)

	pflag.String(kafkaHostFlag, viper.GetString(kafkaHostFlag), "Kafka host")
	pflag.Int32(kafkaPortFlag, viper.GetInt32(kafkaPortFlag), "Kafka port")
	pflag.String(kafkaTopicFlag, viper.GetString(kafkaTopicFlag), "Kafka topic for change events")
	pflag.String(storageBackendFlag, viper.GetString(storageBackendFlag), "Storage backend (mongodb|postgres)")
	pflag.String(mongoDBURIFlag, viper.GetString(mongoDBURIFlag), "MongoDB URI")
	pflag.String(postgresDSNFlag, viper.GetString(postgresDSNFlag), "PostgreSQL DSN")
	pflag.String(cacheBackendFlag, viper.GetString(cacheBackendFlag), "Cache backend (memory|redis)")
	pflag.Int(cacheSizeFlag, viper.GetInt(cacheSizeFlag), "In-memory cache entry limit")
	pflag.Duration(cacheTTLFlag, viper.GetDuration(cacheTTLFlag), "Cache entry TTL")
	pflag.String(redisURLFlag, viper.GetString(redisURLFlag), "Redis URL")
	pflag.Bool(developmentFlag, viper.GetBool(developmentFlag), "Development mode")
	pflag.Int32(grpcPortFlag, viper.GetInt32(grpcPortFlag), "gRPC port")
	pflag.Int32(metricsPortFlag, viper.GetInt32(metricsPortFlag), "Prometheus metrics port")
	pflag.Parse()

	runtime.Must(viper.BindPFlags(pflag.CommandLine))

	// Bind the viper flags to environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, flag := range flags {
		runtime.Must(viper.BindEnv(flag))
	}

	cfg := &Config{
		Kafka: KafkaConfig{
			Host:  viper.GetString(kafkaHostFlag),
			Port:  int(viper.GetInt32(kafkaPortFlag)),
			Topic: viper.GetString(kafkaTopicFlag),
		},
		Storage: StorageConfig{
			Backend: viper.GetString(storageBackendFlag),
		},
		MongoDB: MongoDBConfig{
			URI: viper.GetString(mongoDBURIFlag),
		},
		Postgres: PostgresConfig{
			DSN: viper.GetString(postgresDSNFlag),
		},
		Cache: CacheConfig{
			Backend:  viper.GetString(cacheBackendFlag),
			Size:     viper.GetInt(cacheSizeFlag),
			TTL:      viper.GetDuration(cacheTTLFlag),
			RedisURL: viper.GetString(redisURLFlag),
		},
		Development: viper.GetBool(developmentFlag),
		GRPCPort:    int(viper.GetInt32(grpcPortFlag)),
		MetricsPort: int(viper.GetInt32(metricsPortFlag)),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMongoDB, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive, got %d", c.Cache.Size)
	}
	return nil
}
