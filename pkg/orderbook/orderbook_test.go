package orderbook

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func mustSubmit(t *testing.T, ob *orderBook, id string, side Side, price float64, qty int64) (*Order, []*Trade) {
	t.Helper()
	order, trades, err := ob.submit(&Order{
		ID:     id,
		Symbol: ob.symbol,
		Side:   side,
		Price:  decimal.NewFromFloat(price),
		Qty:    qty,
	})
	if err != nil {
		t.Fatalf("submit %s failed: %v", id, err)
	}
	return order, trades
}

func TestSimpleMatch(t *testing.T) {
	ob := newOrderBook("TEST")

	mustSubmit(t, ob, "S1", SELL, 99.0, 10)
	buy, trades := mustSubmit(t, ob, "B1", BUY, 100.0, 10)

	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.BuyOrderID != "B1" || tr.SellOrderID != "S1" {
		t.Errorf("incorrect order IDs in trade: %+v", tr)
	}
	// resting price wins, the aggressor gets the improvement
	if tr.Qty != 10 || !tr.Price.Equal(decimal.NewFromFloat(99.0)) {
		t.Errorf("incorrect qty/price: %+v", tr)
	}
	if buy.Status != StatusFilled || buy.Remaining != 0 {
		t.Errorf("expected B1 filled, got %+v", buy)
	}
}

func TestNoMatchDueToPrice(t *testing.T) {
	ob := newOrderBook("TEST")

	mustSubmit(t, ob, "S1", SELL, 100.0, 10)
	buy, trades := mustSubmit(t, ob, "B1", BUY, 98.0, 10)

	if len(trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(trades))
	}
	if buy.Status != StatusNew {
		t.Errorf("expected B1 resting, got %+v", buy)
	}
}

func TestPartialMatch(t *testing.T) {
	ob := newOrderBook("TEST")

	mustSubmit(t, ob, "S1", SELL, 100.0, 5)
	buy, trades := mustSubmit(t, ob, "B1", BUY, 101.0, 10)

	if len(trades) != 1 || trades[0].Qty != 5 {
		t.Fatalf("expected one trade of 5, got %+v", trades)
	}
	if buy.Status != StatusPartiallyFilled || buy.Remaining != 5 {
		t.Errorf("expected B1 partially filled with 5 left, got %+v", buy)
	}

	// remainder rests on the bid side
	bid, _, okBid, _ := ob.bestBidAsk()
	if !okBid || !bid.Equal(decimal.NewFromFloat(101.0)) {
		t.Errorf("expected best bid 101, got %v ok=%v", bid, okBid)
	}
}

// Resting S1 (150.25, 100) then S2 (150.25, 200); incoming B1 (150.75, 150)
// fills S1 fully and S2 partially, both at the resting 150.25.
func TestFIFOPartialFillScenario(t *testing.T) {
	ob := newOrderBook("TEST")

	s1, _ := mustSubmit(t, ob, "S1", SELL, 150.25, 100)
	s2, _ := mustSubmit(t, ob, "S2", SELL, 150.25, 200)
	b1, trades := mustSubmit(t, ob, "B1", BUY, 150.75, 150)

	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	restingPrice := decimal.NewFromFloat(150.25)
	if trades[0].SellOrderID != "S1" || trades[0].Qty != 100 || !trades[0].Price.Equal(restingPrice) {
		t.Errorf("expected Trade(B1,S1,150.25,100), got %+v", trades[0])
	}
	if trades[1].SellOrderID != "S2" || trades[1].Qty != 50 || !trades[1].Price.Equal(restingPrice) {
		t.Errorf("expected Trade(B1,S2,150.25,50), got %+v", trades[1])
	}
	if trades[1].Seq <= trades[0].Seq {
		t.Errorf("trade seq must be strictly increasing: %d then %d", trades[0].Seq, trades[1].Seq)
	}

	if s1.Status != StatusFilled {
		t.Errorf("expected S1 filled, got %v", s1.Status)
	}
	if s2.Status != StatusPartiallyFilled || s2.Remaining != 150 {
		t.Errorf("expected S2 partially filled with 150 left, got %+v", s2)
	}
	if b1.Status != StatusFilled {
		t.Errorf("expected B1 filled, got %v", b1.Status)
	}
}

func TestBothSidesRestWhenNotCrossed(t *testing.T) {
	ob := newOrderBook("TEST")

	_, trades := mustSubmit(t, ob, "B1", BUY, 100.0, 10)
	if len(trades) != 0 {
		t.Fatalf("expected no trades on empty book, got %d", len(trades))
	}
	_, trades = mustSubmit(t, ob, "S1", SELL, 105.0, 10)
	if len(trades) != 0 {
		t.Fatalf("expected no trades when not crossed, got %d", len(trades))
	}

	bid, ask, okBid, okAsk := ob.bestBidAsk()
	if !okBid || !okAsk {
		t.Fatalf("expected both sides populated")
	}
	if !bid.Equal(decimal.NewFromFloat(100.0)) || !ask.Equal(decimal.NewFromFloat(105.0)) {
		t.Errorf("expected bestBidAsk (100, 105), got (%v, %v)", bid, ask)
	}
}

func TestMultiLevelMatch(t *testing.T) {
	ob := newOrderBook("TEST")

	mustSubmit(t, ob, "S1", SELL, 101.0, 5)
	mustSubmit(t, ob, "S2", SELL, 102.0, 5)
	mustSubmit(t, ob, "S3", SELL, 103.0, 5)

	_, trades := mustSubmit(t, ob, "B1", BUY, 105.0, 15)
	if len(trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(trades))
	}
	if !trades[0].Price.Equal(decimal.NewFromFloat(101.0)) || !trades[2].Price.Equal(decimal.NewFromFloat(103.0)) {
		t.Errorf("expected matching from best price upward, got %+v", trades)
	}
}

func TestPartialRestingKeepsPriority(t *testing.T) {
	ob := newOrderBook("TEST")

	mustSubmit(t, ob, "S1", SELL, 100.0, 10)
	mustSubmit(t, ob, "B1", BUY, 100.0, 4) // S1 left with 6

	// a later sell at the same price queues behind the partial S1
	mustSubmit(t, ob, "S2", SELL, 100.0, 10)

	_, trades := mustSubmit(t, ob, "B2", BUY, 100.0, 8)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].SellOrderID != "S1" || trades[0].Qty != 6 {
		t.Errorf("expected S1's remainder to fill first, got %+v", trades[0])
	}
	if trades[1].SellOrderID != "S2" || trades[1].Qty != 2 {
		t.Errorf("expected S2 to fill after S1, got %+v", trades[1])
	}
}

// Filling the front order of a level must leave the orders behind it
// untouched and still quoted.
func TestFullFillKeepsQueueIntact(t *testing.T) {
	ob := newOrderBook("TEST")

	mustSubmit(t, ob, "S1", SELL, 100.0, 10)
	mustSubmit(t, ob, "S2", SELL, 100.0, 10)

	_, trades := mustSubmit(t, ob, "B1", BUY, 100.0, 10)
	if len(trades) != 1 || trades[0].SellOrderID != "S1" {
		t.Fatalf("expected B1 to fill S1, got %+v", trades)
	}

	_, ask, _, okAsk := ob.bestBidAsk()
	if !okAsk || !ask.Equal(decimal.NewFromFloat(100.0)) {
		t.Fatalf("expected S2 still quoted at 100, got ok=%v ask=%v", okAsk, ask)
	}
	if levels := ob.depth(SELL, 0); len(levels) != 1 || levels[0].Qty != 10 {
		t.Errorf("expected ask depth [(100,10)], got %+v", levels)
	}

	_, trades = mustSubmit(t, ob, "B2", BUY, 100.0, 10)
	if len(trades) != 1 || trades[0].SellOrderID != "S2" {
		t.Errorf("expected B2 to fill S2, got %+v", trades)
	}
}

// Same shape across price levels: a fill that empties one level must not
// swallow the front of the next.
func TestFullFillKeepsNextLevelIntact(t *testing.T) {
	ob := newOrderBook("TEST")

	mustSubmit(t, ob, "S1", SELL, 100.0, 10)
	mustSubmit(t, ob, "S2", SELL, 101.0, 10)

	_, trades := mustSubmit(t, ob, "B1", BUY, 100.0, 10)
	if len(trades) != 1 || trades[0].SellOrderID != "S1" {
		t.Fatalf("expected B1 to fill S1, got %+v", trades)
	}

	_, trades = mustSubmit(t, ob, "B2", BUY, 101.0, 10)
	if len(trades) != 1 || trades[0].SellOrderID != "S2" {
		t.Errorf("expected B2 to fill S2 at 101, got %+v", trades)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	ob := newOrderBook("TEST")

	_, _, err := ob.submit(&Order{ID: "B1", Side: BUY, Price: decimal.NewFromFloat(-1), Qty: 10})
	if !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}

	_, _, err = ob.submit(&Order{ID: "B2", Side: BUY, Price: decimal.NewFromFloat(100), Qty: 0})
	if !errors.Is(err, ErrInvalidQty) {
		t.Errorf("expected ErrInvalidQty, got %v", err)
	}

	// rejected orders leave no state behind
	if len(ob.ordersByID) != 0 {
		t.Errorf("expected no partial state after rejects, got %d orders", len(ob.ordersByID))
	}

	mustSubmit(t, ob, "B3", BUY, 100.0, 10)
	_, _, err = ob.submit(&Order{ID: "B3", Side: BUY, Price: decimal.NewFromFloat(100), Qty: 10})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestCancelOrder(t *testing.T) {
	ob := newOrderBook("TEST")

	mustSubmit(t, ob, "B1", BUY, 100.0, 10)
	order, err := ob.cancel("B1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if order.Status != StatusCancelled {
		t.Errorf("expected Cancelled, got %v", order.Status)
	}
	if _, ok := ob.ordersByID["B1"]; ok {
		t.Errorf("cancelled order should be removed from ordersByID")
	}

	if _, err := ob.cancel("B1"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound on second cancel, got %v", err)
	}
	if _, err := ob.cancel("nope"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound for unknown id, got %v", err)
	}
}

// A cancelled order must never trade, even though its book entry is only
// tombstoned, not physically removed.
func TestCancelledOrderNeverTrades(t *testing.T) {
	ob := newOrderBook("TEST")

	mustSubmit(t, ob, "S1", SELL, 100.0, 10)
	mustSubmit(t, ob, "S2", SELL, 100.0, 10)
	if _, err := ob.cancel("S1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, trades := mustSubmit(t, ob, "B1", BUY, 101.0, 15)
	for _, tr := range trades {
		if tr.SellOrderID == "S1" {
			t.Fatalf("cancelled order S1 appeared in trade %+v", tr)
		}
	}
	if len(trades) != 1 || trades[0].SellOrderID != "S2" || trades[0].Qty != 10 {
		t.Errorf("expected single trade against S2, got %+v", trades)
	}
}

func TestQuantityConservation(t *testing.T) {
	ob := newOrderBook("TEST")

	filled := make(map[string]int64)
	record := func(trades []*Trade) {
		for _, tr := range trades {
			filled[tr.BuyOrderID] += tr.Qty
			filled[tr.SellOrderID] += tr.Qty
		}
	}

	orders := make(map[string]*Order)
	num := 200
	for i := 0; i < num; i++ {
		side := BUY
		price := 100.0 + float64(i%5)
		if i%2 == 0 {
			side = SELL
			price = 100.0 + float64(i%7)
		}
		id := fmt.Sprintf("ORD-%d", i)
		order, trades, err := ob.submit(&Order{
			ID:     id,
			Symbol: "TEST",
			Side:   side,
			Price:  decimal.NewFromFloat(price),
			Qty:    int64(1 + i%10),
		})
		if err != nil {
			t.Fatalf("submit %s failed: %v", id, err)
		}
		orders[id] = order
		record(trades)
	}

	for id, order := range orders {
		if filled[id]+order.Remaining != order.Qty {
			t.Errorf("order %s: filled %d + remaining %d != qty %d",
				id, filled[id], order.Remaining, order.Qty)
		}
	}

	// post-match stability after the whole run
	bid, ask, okBid, okAsk := ob.bestBidAsk()
	if okBid && okAsk && bid.GreaterThanOrEqual(ask) {
		t.Errorf("book crossed after matching: bid=%v ask=%v", bid, ask)
	}
}

func TestCrossedBookDetectedAsFatal(t *testing.T) {
	ob := newOrderBook("TEST")

	// force a crossed state behind the matching loop's back
	_ = ob.bids.insert(newTestOrder("B1", BUY, 101.0, 10, 1))
	_ = ob.asks.insert(newTestOrder("S1", SELL, 100.0, 10, 2))

	_, _, err := ob.submit(&Order{ID: "B2", Side: BUY, Price: decimal.NewFromFloat(50), Qty: 1})
	if !errors.Is(err, ErrCrossedBook) {
		t.Fatalf("expected ErrCrossedBook, got %v", err)
	}
	if !ob.corrupt {
		t.Fatalf("expected book marked corrupt")
	}

	// a corrupt book refuses everything afterwards
	if _, _, err := ob.submit(&Order{ID: "B3", Side: BUY, Price: decimal.NewFromFloat(50), Qty: 1}); !errors.Is(err, ErrCrossedBook) {
		t.Errorf("expected corrupt book to reject submit, got %v", err)
	}
	if _, err := ob.cancel("B1"); !errors.Is(err, ErrCrossedBook) {
		t.Errorf("expected corrupt book to reject cancel, got %v", err)
	}
}

func BenchmarkOrderBookMatch(b *testing.B) {
	ob := newOrderBook("TEST")

	for i := 0; i < 10_000; i++ {
		_, _, _ = ob.submit(&Order{
			ID:     fmt.Sprintf("SELL-%d", i),
			Symbol: "TEST",
			Side:   SELL,
			Price:  decimal.NewFromFloat(100.0 + float64(i%5)),
			Qty:    10,
		})
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _, _ = ob.submit(&Order{
			ID:     fmt.Sprintf("BUY-%d", i),
			Symbol: "TEST",
			Side:   BUY,
			Price:  decimal.NewFromFloat(101.0),
			Qty:    10,
		})
	}
}
