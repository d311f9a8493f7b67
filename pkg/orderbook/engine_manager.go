package orderbook

import (
	"context"
	"sync"
)

type EngineManagerConfig struct {
	// CommandBuffer is the per-instrument request queue size.
	CommandBuffer int
}

// EngineManager shards matching by symbol: one Engine (and one goroutine)
// per instrument, created on first use. Instruments share nothing, so they
// match fully independently.
type EngineManager struct {
	engines sync.Map

	mu             sync.Mutex
	tradeCallbacks []func([]*Trade)
	orderCallbacks []func(Order)
	stopped        bool
	cfg            *EngineManagerConfig
}

func NewEngineManager(cfg *EngineManagerConfig) *EngineManager {
	if cfg == nil {
		cfg = &EngineManagerConfig{}
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 1024
	}
	return &EngineManager{cfg: cfg}
}

// RegisterTradeCallback subscribes to the trade stream of engines created
// after the registration; register before the first submit. Callbacks run
// on the engine goroutine, in match order per instrument.
func (m *EngineManager) RegisterTradeCallback(cb func([]*Trade)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tradeCallbacks = append(m.tradeCallbacks, cb)
}

// RegisterOrderCallback subscribes to order status-change events of
// engines created after the registration.
func (m *EngineManager) RegisterOrderCallback(cb func(Order)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderCallbacks = append(m.orderCallbacks, cb)
}

func (m *EngineManager) Submit(ctx context.Context, order *Order) (Order, []*Trade, error) {
	return m.getOrCreateEngine(order.Symbol).Submit(ctx, order)
}

func (m *EngineManager) Cancel(ctx context.Context, symbol, orderID string) (Order, error) {
	return m.getOrCreateEngine(symbol).Cancel(ctx, orderID)
}

func (m *EngineManager) BestBidAsk(ctx context.Context, symbol string) (Quote, error) {
	return m.getOrCreateEngine(symbol).BestBidAsk(ctx)
}

func (m *EngineManager) Depth(ctx context.Context, symbol string, side Side, levels int) ([]PriceLevel, error) {
	return m.getOrCreateEngine(symbol).Depth(ctx, side, levels)
}

func (m *EngineManager) getOrCreateEngine(symbol string) *Engine {
	if val, ok := m.engines.Load(symbol); ok {
		return val.(*Engine)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if val, ok := m.engines.Load(symbol); ok {
		return val.(*Engine)
	}

	engine := newEngine(symbol, m.cfg.CommandBuffer)
	engine.tradeCallbacks = m.tradeCallbacks
	engine.orderCallbacks = m.orderCallbacks
	m.engines.Store(symbol, engine)
	if m.stopped {
		engine.stopOnce.Do(func() { close(engine.stop) })
		close(engine.done)
	} else {
		go engine.run()
	}
	return engine
}

// Stop shuts down every engine after draining already-enqueued requests.
func (m *EngineManager) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	m.engines.Range(func(_, v any) bool {
		v.(*Engine).shutdown()
		return true
	})
}
