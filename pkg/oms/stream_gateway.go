package oms

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	kafkawrapper "github.com/tradecore/matchengine/pkg/kafka_wrapper"
	"github.com/tradecore/matchengine/pkg/oms/model"
)

const (
	OrderEventStream  = "ORDERS"
	OrderEventSubject = "ORDERS.events"
	TradeStream       = "TRADES"
	TradeSubject      = "TRADES.executed"
)

type StreamGatewayConfig struct {
	TradeTopic string
}

// StreamGateway ships order reports to NATS JetStream (for the persistence
// worker) and trades to Kafka (for downstream consumers). Either leg may be
// nil, which disables it.
type StreamGateway struct {
	js       nats.JetStreamContext
	producer *kafkawrapper.Producer
	cfg      StreamGatewayConfig
}

func NewStreamGateway(js nats.JetStreamContext, producer *kafkawrapper.Producer, cfg StreamGatewayConfig) *StreamGateway {
	if cfg.TradeTopic == "" {
		cfg.TradeTopic = "trades.executed"
	}
	return &StreamGateway{js: js, producer: producer, cfg: cfg}
}

func (g *StreamGateway) Start(ctx context.Context) error {
	if g.js == nil {
		return nil
	}
	for _, name := range []string{OrderEventStream, TradeStream} {
		_, err := g.js.AddStream(&nats.StreamConfig{
			Name:     name,
			Subjects: []string{name + ".*"},
		})
		if err != nil && err != nats.ErrStreamNameAlreadyInUse {
			return err
		}
	}
	return nil
}

func (g *StreamGateway) OnOrderReport(ctx context.Context, order model.Order) {
	if g.js == nil {
		return
	}

	execType := model.ExecTypeNew
	switch order.Status {
	case model.OrderStatusCancelled:
		execType = model.ExecTypeCancelled
	case model.OrderStatusFilled, model.OrderStatusPartiallyFilled:
		execType = model.ExecTypeTrade
	}

	b, err := json.Marshal(model.NewOrderEvent(order, execType, order.TransactTime))
	if err != nil {
		zap.S().Warnw("marshal order event failed", "orderID", order.OrderID, "error", err)
		return
	}
	if _, err := g.js.PublishAsync(OrderEventSubject, b); err != nil {
		zap.S().Warnw("publish order event failed", "orderID", order.OrderID, "error", err)
	}
}

func (g *StreamGateway) OnTrade(ctx context.Context, trade *model.Trade) {
	b, err := json.Marshal(trade)
	if err != nil {
		zap.S().Warnw("marshal trade failed", "symbol", trade.Symbol, "seq", trade.Seq, "error", err)
		return
	}

	if g.js != nil {
		if _, err := g.js.PublishAsync(TradeSubject, b); err != nil {
			zap.S().Warnw("publish trade to stream failed", "symbol", trade.Symbol, "seq", trade.Seq, "error", err)
		}
	}
	if g.producer != nil {
		if err := g.producer.Publish(ctx, g.cfg.TradeTopic, []byte(trade.Symbol), b); err != nil {
			zap.S().Warnw("publish trade to kafka failed", "symbol", trade.Symbol, "seq", trade.Seq, "error", err)
		}
	}
}
