package eventstore

import (
	"sync"

	"github.com/tradecore/matchengine/pkg/oms/model"
)

type InMemoryEventStore struct {
	mu     sync.RWMutex
	orders map[string][]*model.OrderEvent
	trades map[string][]*model.Trade
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		orders: make(map[string][]*model.OrderEvent),
		trades: make(map[string][]*model.Trade),
	}
}

func (s *InMemoryEventStore) AddOrderEvent(ev *model.OrderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[ev.OrderID] = append(s.orders[ev.OrderID], ev)
}

func (s *InMemoryEventStore) AddTrade(trade *model.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades[trade.Symbol] = append(s.trades[trade.Symbol], trade)
}

func (s *InMemoryEventStore) OrderEvents(orderID string) []*model.OrderEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.OrderEvent, len(s.orders[orderID]))
	copy(out, s.orders[orderID])
	return out
}

func (s *InMemoryEventStore) Trades(symbol string) []*model.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Trade, len(s.trades[symbol]))
	copy(out, s.trades[symbol])
	return out
}

// DeleteChainByOrderID drops the event history of a terminal order; used
// by the cleaner to bound memory.
func (s *InMemoryEventStore) DeleteChainByOrderID(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.orders, orderID)
}
