package orderbook

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestOrder(id string, side Side, price float64, qty int64, seq uint64) *Order {
	return &Order{
		ID:        id,
		Symbol:    "TEST",
		Side:      side,
		Price:     decimal.NewFromFloat(price),
		Qty:       qty,
		Remaining: qty,
		Seq:       seq,
		Status:    StatusNew,
	}
}

func TestSideBookPriorityOrdering(t *testing.T) {
	asks := newSideBook(SELL)
	_ = asks.insert(newTestOrder("S1", SELL, 101.0, 10, 1))
	_ = asks.insert(newTestOrder("S2", SELL, 100.0, 10, 2))
	_ = asks.insert(newTestOrder("S3", SELL, 102.0, 10, 3))

	best, ok := asks.peekBest()
	if !ok || best.ID != "S2" {
		t.Fatalf("expected best ask S2 at 100, got %+v", best)
	}

	bids := newSideBook(BUY)
	_ = bids.insert(newTestOrder("B1", BUY, 99.0, 10, 1))
	_ = bids.insert(newTestOrder("B2", BUY, 100.0, 10, 2))

	best, ok = bids.peekBest()
	if !ok || best.ID != "B2" {
		t.Fatalf("expected best bid B2 at 100, got %+v", best)
	}
}

func TestSideBookFIFOAtSamePrice(t *testing.T) {
	asks := newSideBook(SELL)
	_ = asks.insert(newTestOrder("S1", SELL, 100.0, 10, 1))
	_ = asks.insert(newTestOrder("S2", SELL, 100.0, 10, 2))

	first, _ := asks.popBest()
	second, _ := asks.popBest()
	if first.ID != "S1" || second.ID != "S2" {
		t.Errorf("expected FIFO S1 then S2, got %s then %s", first.ID, second.ID)
	}
}

func TestSideBookSkipsTombstones(t *testing.T) {
	asks := newSideBook(SELL)
	s1 := newTestOrder("S1", SELL, 100.0, 10, 1)
	s2 := newTestOrder("S2", SELL, 100.0, 10, 2)
	_ = asks.insert(s1)
	_ = asks.insert(s2)

	// cancel the front order; the entry stays behind as a tombstone
	if err := s1.markCancelled(); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	best, ok := asks.peekBest()
	if !ok || best.ID != "S2" {
		t.Fatalf("expected tombstoned S1 skipped, got %+v", best)
	}
}

func TestSideBookDrainsEmptyLevels(t *testing.T) {
	asks := newSideBook(SELL)
	s1 := newTestOrder("S1", SELL, 100.0, 10, 1)
	_ = asks.insert(s1)
	_ = asks.insert(newTestOrder("S2", SELL, 101.0, 10, 2))

	_ = s1.markCancelled()

	best, ok := asks.peekBest()
	if !ok || best.ID != "S2" {
		t.Fatalf("expected level 100 drained and best=S2, got %+v", best)
	}
	if _, ok := asks.levels["100"]; ok {
		t.Errorf("expected empty level 100 removed")
	}
}

func TestSideBookInsertRejects(t *testing.T) {
	asks := newSideBook(SELL)

	err := asks.insert(newTestOrder("S1", SELL, 0, 10, 1))
	if !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}

	o := newTestOrder("S2", SELL, 100.0, 10, 2)
	o.Remaining = 0
	err = asks.insert(o)
	if !errors.Is(err, ErrInvalidQty) {
		t.Errorf("expected ErrInvalidQty, got %v", err)
	}
}

func TestSideBookDepth(t *testing.T) {
	bids := newSideBook(BUY)
	_ = bids.insert(newTestOrder("B1", BUY, 100.0, 10, 1))
	_ = bids.insert(newTestOrder("B2", BUY, 100.0, 20, 2))
	_ = bids.insert(newTestOrder("B3", BUY, 99.5, 5, 3))
	b4 := newTestOrder("B4", BUY, 99.0, 7, 4)
	_ = bids.insert(b4)
	_ = b4.markCancelled()

	levels := bids.depth(0)
	if len(levels) != 2 {
		t.Fatalf("expected 2 live levels, got %d: %+v", len(levels), levels)
	}
	if !levels[0].Price.Equal(decimal.NewFromFloat(100.0)) || levels[0].Qty != 30 {
		t.Errorf("expected level (100, 30), got %+v", levels[0])
	}
	if !levels[1].Price.Equal(decimal.NewFromFloat(99.5)) || levels[1].Qty != 5 {
		t.Errorf("expected level (99.5, 5), got %+v", levels[1])
	}

	if top := bids.depth(1); len(top) != 1 || top[0].Qty != 30 {
		t.Errorf("expected single top level, got %+v", top)
	}
}

func TestSideBookEquivalentPricesShareLevel(t *testing.T) {
	asks := newSideBook(SELL)
	o1 := newTestOrder("S1", SELL, 0, 10, 1)
	o1.Price = decimal.RequireFromString("1.50")
	o2 := newTestOrder("S2", SELL, 0, 10, 2)
	o2.Price = decimal.RequireFromString("1.5")

	_ = asks.insert(o1)
	_ = asks.insert(o2)

	if levels := asks.depth(0); len(levels) != 1 || levels[0].Qty != 20 {
		t.Errorf("expected 1.50 and 1.5 on one level, got %+v", levels)
	}
}
