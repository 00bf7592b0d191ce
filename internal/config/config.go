package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Redis    *redisConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"devbrief"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type redisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASS" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type svcConfig struct {
	Address         string `envconfig:"DEVBRIEF_ADDRESS" default:":8080"`
	MetricsAddress  string `envconfig:"DEVBRIEF_METRICS_ADDRESS" default:":8090"`
	BaseUrl         string `envconfig:"DEVBRIEF_BASE_URL" default:"http://localhost:8080"`
	LogLevel        string `envconfig:"DEVBRIEF_LOG_LEVEL" default:"info"`
	MigrationFolder string `envconfig:"DEVBRIEF_MIGRATIONS_FOLDER" default:""`
	Kafka           kafkaConfig
	Consumers       consumerConfig
}

type kafkaConfig struct {
	Brokers  []string `envconfig:"DEVBRIEF_KAFKA_BROKERS" default:""`
	Topic    string   `envconfig:"DEVBRIEF_KAFKA_TOPIC" default:"devbrief.events"`
	ClientID string   `envconfig:"DEVBRIEF_KAFKA_CLIENT_ID" default:"devbrief-api"`
	Version  string   `envconfig:"DEVBRIEF_KAFKA_VERSION" default:""`
}

// consumerConfig tunes the result-processor loops.
type consumerConfig struct {
	PopTimeout              time.Duration `envconfig:"DEVBRIEF_CONSUMER_POP_TIMEOUT" default:"30s"`
	CompletionScanInterval  time.Duration `envconfig:"DEVBRIEF_COMPLETION_SCAN_INTERVAL" default:"30s"`
	CompletionQueueInterval time.Duration `envconfig:"DEVBRIEF_COMPLETION_QUEUE_INTERVAL" default:"10s"`
	MaxRetries              int           `envconfig:"DEVBRIEF_CONSUMER_MAX_RETRIES" default:"3"`
	RetryCounterTTL         time.Duration `envconfig:"DEVBRIEF_CONSUMER_RETRY_TTL" default:"1h"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a configuration populated with defaults only,
// bypassing the singleton. Used in tests.
func NewDefault() *Config {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}
	return cfg
}
