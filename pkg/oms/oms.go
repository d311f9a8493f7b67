package oms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	eventstore "github.com/tradecore/matchengine/pkg/oms/event_store"
	"github.com/tradecore/matchengine/pkg/oms/model"
	riskrule "github.com/tradecore/matchengine/pkg/oms/risk_rule"
	"github.com/tradecore/matchengine/pkg/orderbook"
)

// MarketDataPublisher receives book snapshots after each mutation. Nil
// disables publication.
type MarketDataPublisher interface {
	PublishQuote(ctx context.Context, symbol string, quote orderbook.Quote) error
	PublishDepth(ctx context.Context, symbol string, bids, asks []orderbook.PriceLevel) error
}

type Config struct {
	CommandBuffer   int
	CleanInterval   time.Duration
	RetainTerminal  time.Duration
	MarketDataDepth int
}

// OMS fronts the matching engines: it validates submissions, keeps the
// reportable order records, and fans executions out to the event store,
// the order gateway and the market-data publisher.
type OMS struct {
	orderGateway  OrderGateway
	engineManager *orderbook.EngineManager
	eventstore    eventstore.EventStore
	marketdata    MarketDataPublisher

	orderIDMapping sync.Map
	recordLocks    sync.Map
	stopCh         chan struct{}
	stopOnce       sync.Once
	cfg            Config

	rules []riskrule.RiskRule
}

var totalMatchQty int64
var totalMatchCount int64

func NewOMS(orderGateway OrderGateway, cfg Config, rules ...riskrule.RiskRule) *OMS {
	if cfg.CleanInterval <= 0 {
		cfg.CleanInterval = time.Minute
	}
	if cfg.RetainTerminal <= 0 {
		cfg.RetainTerminal = 10 * time.Minute
	}
	if cfg.MarketDataDepth <= 0 {
		cfg.MarketDataDepth = 10
	}

	return &OMS{
		orderGateway: orderGateway,
		engineManager: orderbook.NewEngineManager(&orderbook.EngineManagerConfig{
			CommandBuffer: cfg.CommandBuffer,
		}),
		eventstore: eventstore.NewInMemoryEventStore(),
		stopCh:     make(chan struct{}),
		cfg:        cfg,
		rules:      rules,
	}
}

// recordLock serializes reportable-record updates per instrument. The
// engine orders trades per symbol, but they surface on the submitters'
// goroutines; two concurrent submits can carry trades touching the same
// resting counterparty record.
func (s *OMS) recordLock(symbol string) *sync.Mutex {
	val, _ := s.recordLocks.LoadOrStore(symbol, &sync.Mutex{})
	return val.(*sync.Mutex)
}

func (s *OMS) SetMarketDataPublisher(p MarketDataPublisher) {
	s.marketdata = p
}

func (s *OMS) EventStore() eventstore.EventStore {
	return s.eventstore
}

func (s *OMS) Start(ctx context.Context) error {
	if s.orderGateway != nil {
		if err := s.orderGateway.Start(ctx); err != nil {
			return err
		}
	}
	go s.startCleaner(s.cfg.CleanInterval, s.cfg.RetainTerminal)
	return nil
}

func (s *OMS) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.engineManager.Stop()
	})
}

// SubmitOrder validates and admits one limit order, matching it to
// completion. It returns the resulting order record and the trades
// produced, in execution order. Rejections leave no state behind.
func (s *OMS) SubmitOrder(ctx context.Context, submit *model.SubmitOrder) (*model.Order, []*model.Trade, error) {
	if err := s.validate(submit); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	order := &model.Order{
		OrderID:        uuid.NewString(),
		Account:        submit.Account,
		Symbol:         submit.Symbol,
		Side:           submit.Side,
		Price:          submit.Price,
		Quantity:       submit.Quantity,
		TransactTime:   now,
		Status:         model.OrderStatusNew,
		LeavesQuantity: submit.Quantity,
	}
	s.addOrderToMap(order)

	snap, trades, err := s.engineManager.Submit(ctx, &orderbook.Order{
		ID:     order.OrderID,
		Symbol: order.Symbol,
		Side:   orderbook.Side(order.Side),
		Price:  order.Price,
		Qty:    order.Quantity,
	})
	if err != nil {
		s.deleteOrderByOrderID(order.OrderID)
		if errors.Is(err, orderbook.ErrCrossedBook) {
			zap.S().Errorw("matching halted for instrument", "symbol", order.Symbol, "error", err)
		}
		return nil, nil, err
	}
	mu := s.recordLock(order.Symbol)
	mu.Lock()
	order.UpdateAdmission(snap)
	s.eventstore.AddOrderEvent(model.NewOrderEvent(*order, model.ExecTypeNew, now))
	s.report(ctx, *order)
	modelTrades := s.processTrades(ctx, order, trades)
	mu.Unlock()

	s.publishMarketData(ctx, order.Symbol)

	return order, modelTrades, nil
}

// CancelOrder marks the order cancelled. Unknown ids are an error; a
// cancel that arrives after the order went terminal reports NotActive.
func (s *OMS) CancelOrder(ctx context.Context, cancel *model.CancelOrder) (model.CancelStatus, *model.Order, error) {
	order, err := s.GetOrderByOrderID(cancel.OrderID)
	if err != nil {
		return "", nil, fmt.Errorf("cancel %s: %w", cancel.OrderID, ErrOrderNotFound)
	}

	mu := s.recordLock(order.Symbol)
	mu.Lock()

	if !order.CanCancel() {
		mu.Unlock()
		return model.CancelStatusNotActive, order, nil
	}

	if _, err := s.engineManager.Cancel(ctx, order.Symbol, order.OrderID); err != nil {
		mu.Unlock()
		if errors.Is(err, orderbook.ErrOrderNotFound) {
			// went terminal between the record check and the engine call
			return model.CancelStatusNotActive, order, nil
		}
		return "", nil, err
	}

	order.UpdateCancel()
	now := time.Now()
	s.eventstore.AddOrderEvent(model.NewOrderEvent(*order, model.ExecTypeCancelled, now))
	s.report(ctx, *order)
	mu.Unlock()

	s.publishMarketData(ctx, order.Symbol)

	return model.CancelStatusCancelled, order, nil
}

func (s *OMS) BestBidAsk(ctx context.Context, symbol string) (orderbook.Quote, error) {
	return s.engineManager.BestBidAsk(ctx, symbol)
}

func (s *OMS) Depth(ctx context.Context, symbol string, side orderbook.Side, levels int) ([]orderbook.PriceLevel, error) {
	return s.engineManager.Depth(ctx, symbol, side, levels)
}

func (s *OMS) validate(submit *model.SubmitOrder) error {
	if submit.Symbol == "" {
		return fmt.Errorf("missing symbol: %w", ErrInvalidOrder)
	}
	if submit.Side != model.OrderSideBuy && submit.Side != model.OrderSideSell {
		return fmt.Errorf("side %q: %w", submit.Side, ErrInvalidOrder)
	}
	if submit.Price.Sign() <= 0 {
		return fmt.Errorf("price %s: %w", submit.Price, ErrInvalidOrder)
	}
	if submit.Quantity <= 0 {
		return fmt.Errorf("quantity %d: %w", submit.Quantity, ErrInvalidOrder)
	}

	for _, rule := range s.rules {
		if err := rule.Check(submit); err != nil {
			return fmt.Errorf("%v: %w", err, ErrRiskRejected)
		}
	}
	return nil
}

func (s *OMS) processTrades(ctx context.Context, order *model.Order, trades []*orderbook.Trade) []*model.Trade {
	out := make([]*model.Trade, 0, len(trades))
	for _, t := range trades {
		atomic.AddInt64(&totalMatchQty, t.Qty)
		if atomic.AddInt64(&totalMatchCount, 1)%100_000 == 0 {
			zap.S().Infow("match totals",
				"count", atomic.LoadInt64(&totalMatchCount),
				"qty", atomic.LoadInt64(&totalMatchQty))
		}

		trade := &model.Trade{
			Seq:         t.Seq,
			Symbol:      t.Symbol,
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
			Price:       t.Price,
			Quantity:    t.Qty,
			Timestamp:   t.Timestamp,
		}
		out = append(out, trade)
		s.eventstore.AddTrade(trade)
		if s.orderGateway != nil {
			s.orderGateway.OnTrade(ctx, trade)
		}

		counterID := t.BuyOrderID
		if order.Side == model.OrderSideBuy {
			counterID = t.SellOrderID
		}

		order.UpdateTrade(t)
		s.eventstore.AddOrderEvent(model.NewOrderEvent(*order, model.ExecTypeTrade, t.Timestamp))
		s.report(ctx, *order)

		counter, err := s.GetOrderByOrderID(counterID)
		if err != nil {
			zap.S().Warnw("trade counterparty not found", "orderID", counterID)
			continue
		}
		counter.UpdateTrade(t)
		s.eventstore.AddOrderEvent(model.NewOrderEvent(*counter, model.ExecTypeTrade, t.Timestamp))
		s.report(ctx, *counter)
	}
	return out
}

func (s *OMS) report(ctx context.Context, order model.Order) {
	if s.orderGateway != nil {
		s.orderGateway.OnOrderReport(ctx, order)
	}
}

func (s *OMS) publishMarketData(ctx context.Context, symbol string) {
	if s.marketdata == nil {
		return
	}

	quote, err := s.engineManager.BestBidAsk(ctx, symbol)
	if err != nil {
		zap.S().Warnw("market data quote failed", "symbol", symbol, "error", err)
		return
	}
	if err := s.marketdata.PublishQuote(ctx, symbol, quote); err != nil {
		zap.S().Warnw("publish quote failed", "symbol", symbol, "error", err)
	}

	bids, err := s.engineManager.Depth(ctx, symbol, orderbook.BUY, s.cfg.MarketDataDepth)
	if err != nil {
		return
	}
	asks, err := s.engineManager.Depth(ctx, symbol, orderbook.SELL, s.cfg.MarketDataDepth)
	if err != nil {
		return
	}
	if err := s.marketdata.PublishDepth(ctx, symbol, bids, asks); err != nil {
		zap.S().Warnw("publish depth failed", "symbol", symbol, "error", err)
	}
}
