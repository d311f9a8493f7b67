package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tradecore/matchengine/config"
	redis_wrapper "github.com/tradecore/matchengine/pkg/infra/redis"
	kafkawrapper "github.com/tradecore/matchengine/pkg/kafka_wrapper"
	"github.com/tradecore/matchengine/pkg/logging"
	"github.com/tradecore/matchengine/pkg/marketdata"
	"github.com/tradecore/matchengine/pkg/oms"
	riskrule "github.com/tradecore/matchengine/pkg/oms/risk_rule"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger, err := logging.Init(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // nolint

	go func() {
		_ = http.ListenAndServe("localhost:6060", nil)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var js nats.JetStreamContext
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			zap.S().Fatalw("connect nats failed", "url", cfg.NatsURL, "error", err)
		}
		defer nc.Drain() // nolint
		js, err = nc.JetStream()
		if err != nil {
			zap.S().Fatalw("jetstream context failed", "error", err)
		}
	}

	var producer *kafkawrapper.Producer
	var tradeTopic string
	if cfg.Kafka != nil && len(cfg.Kafka.Brokers) > 0 {
		producer = kafkawrapper.NewProducer(kafkawrapper.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		tradeTopic = cfg.Kafka.TradeTopic
		defer producer.Close() // nolint
	}

	engineCfg := cfg.Engine
	if engineCfg == nil {
		engineCfg = &config.EngineConfig{}
	}

	var rules []riskrule.RiskRule
	if engineCfg.TickSizeFile != "" {
		tickRule, err := riskrule.NewTickSizeRuleFromFile(engineCfg.TickSizeFile)
		if err != nil {
			zap.S().Fatalw("load tick size rules failed", "file", engineCfg.TickSizeFile, "error", err)
		}
		rules = append(rules, tickRule)
	}

	gateway := oms.NewStreamGateway(js, producer, oms.StreamGatewayConfig{TradeTopic: tradeTopic})
	service := oms.NewOMS(gateway, oms.Config{
		CommandBuffer:   engineCfg.CommandBuffer,
		MarketDataDepth: engineCfg.MarketDataDepth,
	}, rules...)

	if cfg.Redis != nil {
		redisClient, err := redis_wrapper.InitRedis(cfg.Redis)
		if err != nil {
			zap.S().Fatalw("connect redis failed", "error", err)
		}
		service.SetMarketDataPublisher(marketdata.NewRedisPublisher(redisClient, time.Minute))
	}

	if err := service.Start(ctx); err != nil {
		zap.S().Fatalw("start oms failed", "error", err)
	}
	zap.S().Infow("matching engine started", "service", cfg.ServiceName)

	<-sigs
	zap.S().Info("shutting down...")

	cancel()
	service.Stop()

	zap.S().Info("exited cleanly")
}
