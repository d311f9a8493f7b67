package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	postgres_wrapper "github.com/tradecore/matchengine/pkg/infra/postgres"
	redis_wrapper "github.com/tradecore/matchengine/pkg/infra/redis"
	"github.com/tradecore/matchengine/pkg/logging"
)

type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	TradeTopic string   `yaml:"trade_topic"`
}

type EngineConfig struct {
	CommandBuffer   int    `yaml:"command_buffer"`
	MarketDataDepth int    `yaml:"market_data_depth"`
	TickSizeFile    string `yaml:"tick_size_file"`
}

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	Log         *logging.Config                  `yaml:"log"`
	Engine      *EngineConfig                    `yaml:"engine"`
	OmsDB       *postgres_wrapper.PostgresConfig `yaml:"oms_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	NatsURL     string                           `yaml:"nats_url"`
	Kafka       *KafkaConfig                     `yaml:"kafka"`
}

// Load loads config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	if err = yaml.Unmarshal(configBytes, cfg); err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	return cfg, nil
}
