package worker

import (
	"context"
	"encoding/json"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tradecore/matchengine/pkg/oms/model"
	"github.com/tradecore/matchengine/pkg/oms/repo"
)

// Worker drains the published order-event and trade streams into Postgres.
// It runs apart from the matching path, so persistence latency never backs
// up the engines.
type Worker struct {
	orderEvent repo.IOrderEvent
	trade      repo.ITrade
}

func NewWorker(repo repo.IRepo) *Worker {
	return &Worker{
		orderEvent: repo.OrderEvent(),
		trade:      repo.Trade(),
	}
}

// StartOrderEventConsumer pulls order events from a durable JetStream
// consumer until ctx is done.
func (w *Worker) StartOrderEventConsumer(ctx context.Context, js nats.JetStreamContext, subject, durable string) error {
	cons, err := js.PullSubscribe(subject, durable)
	if err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msgs, err := cons.Fetch(10, nats.Context(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nats.ErrTimeout {
				zap.S().Warnw("fetch order events failed", "error", err)
			}
			continue
		}

		for _, msg := range msgs {
			var ev model.OrderEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				zap.S().Warnw("unmarshal order event failed", "error", err)
				_ = msg.Ack()
				continue
			}
			if _, err := w.orderEvent.Create(ctx, &ev); err != nil {
				zap.S().Errorw("persist order event failed", "eventID", ev.EventID, "error", err)
				continue // no ack, redelivered later
			}
			_ = msg.Ack()
		}
	}
}

// StartTradeConsumer persists trades from a durable JetStream consumer.
func (w *Worker) StartTradeConsumer(ctx context.Context, js nats.JetStreamContext, subject, durable string) error {
	cons, err := js.PullSubscribe(subject, durable)
	if err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msgs, err := cons.Fetch(10, nats.Context(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nats.ErrTimeout {
				zap.S().Warnw("fetch trades failed", "error", err)
			}
			continue
		}

		for _, msg := range msgs {
			var trade model.Trade
			if err := json.Unmarshal(msg.Data, &trade); err != nil {
				zap.S().Warnw("unmarshal trade failed", "error", err)
				_ = msg.Ack()
				continue
			}
			if _, err := w.trade.Create(ctx, &trade); err != nil {
				zap.S().Errorw("persist trade failed", "symbol", trade.Symbol, "seq", trade.Seq, "error", err)
				continue
			}
			_ = msg.Ack()
		}
	}
}
