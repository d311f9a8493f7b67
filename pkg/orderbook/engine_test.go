package orderbook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func limitOrder(id, symbol string, side Side, price float64, qty int64) *Order {
	return &Order{
		ID:     id,
		Symbol: symbol,
		Side:   side,
		Price:  decimal.NewFromFloat(price),
		Qty:    qty,
	}
}

func TestEngineManagerSubmitAndMatch(t *testing.T) {
	m := NewEngineManager(nil)
	defer m.Stop()
	ctx := context.Background()

	var mu sync.Mutex
	var published []*Trade
	m.RegisterTradeCallback(func(trades []*Trade) {
		mu.Lock()
		published = append(published, trades...)
		mu.Unlock()
	})

	if _, _, err := m.Submit(ctx, limitOrder("S1", "AAPL", SELL, 150.25, 100)); err != nil {
		t.Fatalf("submit S1 failed: %v", err)
	}
	order, trades, err := m.Submit(ctx, limitOrder("B1", "AAPL", BUY, 150.75, 100))
	if err != nil {
		t.Fatalf("submit B1 failed: %v", err)
	}

	if len(trades) != 1 || !trades[0].Price.Equal(decimal.NewFromFloat(150.25)) {
		t.Fatalf("expected one trade at resting 150.25, got %+v", trades)
	}
	if order.Status != StatusFilled {
		t.Errorf("expected B1 filled, got %v", order.Status)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(published) != 1 || published[0].BuyOrderID != "B1" {
		t.Errorf("expected trade published to callback, got %+v", published)
	}
}

func TestEngineManagerCancel(t *testing.T) {
	m := NewEngineManager(nil)
	defer m.Stop()
	ctx := context.Background()

	if _, _, err := m.Submit(ctx, limitOrder("B1", "AAPL", BUY, 100.0, 10)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	order, err := m.Cancel(ctx, "AAPL", "B1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if order.Status != StatusCancelled {
		t.Errorf("expected Cancelled, got %v", order.Status)
	}

	if _, err := m.Cancel(ctx, "AAPL", "B1"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound after cancel, got %v", err)
	}

	// a crossing order afterwards must not trade with the cancelled one
	_, trades, err := m.Submit(ctx, limitOrder("S1", "AAPL", SELL, 99.0, 10))
	if err != nil {
		t.Fatalf("submit S1 failed: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("expected no trades against cancelled order, got %+v", trades)
	}
}

func TestEngineManagerQuotesAndDepth(t *testing.T) {
	m := NewEngineManager(nil)
	defer m.Stop()
	ctx := context.Background()

	_, _, _ = m.Submit(ctx, limitOrder("B1", "AAPL", BUY, 100.0, 10))
	_, _, _ = m.Submit(ctx, limitOrder("B2", "AAPL", BUY, 99.5, 20))
	_, _, _ = m.Submit(ctx, limitOrder("S1", "AAPL", SELL, 105.0, 10))

	quote, err := m.BestBidAsk(ctx, "AAPL")
	if err != nil {
		t.Fatalf("bestBidAsk failed: %v", err)
	}
	if !quote.HasBid || !quote.HasAsk {
		t.Fatalf("expected two-sided quote, got %+v", quote)
	}
	if !quote.Bid.Equal(decimal.NewFromFloat(100.0)) || !quote.Ask.Equal(decimal.NewFromFloat(105.0)) {
		t.Errorf("expected (100, 105), got (%v, %v)", quote.Bid, quote.Ask)
	}

	bids, err := m.Depth(ctx, "AAPL", BUY, 5)
	if err != nil {
		t.Fatalf("depth failed: %v", err)
	}
	if len(bids) != 2 || bids[0].Qty != 10 || bids[1].Qty != 20 {
		t.Errorf("expected bid depth [(100,10) (99.5,20)], got %+v", bids)
	}
}

func TestEngineManagerInstrumentsAreIndependent(t *testing.T) {
	m := NewEngineManager(nil)
	defer m.Stop()
	ctx := context.Background()

	var wg sync.WaitGroup
	symbols := []string{"AAPL", "MSFT", "GOOG", "TSLA"}
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				side := BUY
				if i%2 == 0 {
					side = SELL
				}
				id := fmt.Sprintf("%s-%d", symbol, i)
				if _, _, err := m.Submit(ctx, limitOrder(id, symbol, side, 100.0, 10)); err != nil {
					t.Errorf("submit %s failed: %v", id, err)
					return
				}
			}
		}(symbol)
	}
	wg.Wait()

	for _, symbol := range symbols {
		quote, err := m.BestBidAsk(ctx, symbol)
		if err != nil {
			t.Fatalf("bestBidAsk %s failed: %v", symbol, err)
		}
		if quote.HasBid && quote.HasAsk && quote.Bid.GreaterThanOrEqual(quote.Ask) {
			t.Errorf("book %s crossed: %+v", symbol, quote)
		}
	}
}

func TestEngineManagerStop(t *testing.T) {
	m := NewEngineManager(nil)
	ctx := context.Background()

	if _, _, err := m.Submit(ctx, limitOrder("B1", "AAPL", BUY, 100.0, 10)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	m.Stop()

	if _, _, err := m.Submit(ctx, limitOrder("B2", "AAPL", BUY, 100.0, 10)); !errors.Is(err, ErrEngineStopped) {
		t.Errorf("expected ErrEngineStopped, got %v", err)
	}
}
