package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tradecore/matchengine/config"
	postgres_wrapper "github.com/tradecore/matchengine/pkg/infra/postgres"
	"github.com/tradecore/matchengine/pkg/logging"
	"github.com/tradecore/matchengine/pkg/oms"
	"github.com/tradecore/matchengine/pkg/oms/repo"
	"github.com/tradecore/matchengine/pkg/oms/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		zap.S().Fatalw("connect nats failed", "url", cfg.NatsURL, "error", err)
	}
	defer nc.Drain() // nolint

	js, err := nc.JetStream()
	if err != nil {
		zap.S().Fatalw("jetstream context failed", "error", err)
	}

	db, err := postgres_wrapper.InitPostgres(cfg.OmsDB)
	if err != nil {
		zap.S().Fatalw("init db failed", "error", err)
	}

	w := worker.NewWorker(repo.NewRepo(db))
	go func() {
		if err := w.StartOrderEventConsumer(ctx, js, oms.OrderEventSubject, "order_event_worker"); err != nil && err != context.Canceled {
			zap.S().Errorw("order event consumer stopped", "error", err)
		}
	}()
	go func() {
		if err := w.StartTradeConsumer(ctx, js, oms.TradeSubject, "trade_worker"); err != nil && err != context.Canceled {
			zap.S().Errorw("trade consumer stopped", "error", err)
		}
	}()

	zap.S().Infow("worker started", "service", cfg.ServiceName)
	<-sigs
	zap.S().Info("shutting down...")
}
