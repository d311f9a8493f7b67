package orderbook

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	"github.com/gammazero/deque"
	"github.com/shopspring/decimal"
)

// priceKey is the canonical map key for a price level. Trailing zeros are
// stripped so 1.50 and 1.5 land on the same level.
func priceKey(p decimal.Decimal) string {
	s := p.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// sideBook holds one side's resting orders in price-time priority: a heap
// over price levels (max for bids, min for asks) and a FIFO deque per level.
//
// Cancellation is lazy. cancel only flips the order's status; the entry
// stays in its deque as a tombstone and is discarded the next time
// peekBest/popBest reaches it. That keeps cancel at O(log n) instead of a
// linear scan through the level.
type sideBook struct {
	side   Side
	levels map[string]*deque.Deque[*Order]
	prices *PriceHeap
}

func newSideBook(side Side) *sideBook {
	less := func(i, j decimal.Decimal) bool { return i.GreaterThan(j) } // max-heap for bids
	if side == SELL {
		less = func(i, j decimal.Decimal) bool { return i.LessThan(j) } // min-heap for asks
	}

	return &sideBook{
		side:   side,
		levels: make(map[string]*deque.Deque[*Order]),
		prices: NewPriceHeap(less),
	}
}

func (sb *sideBook) insert(order *Order) error {
	if order.Price.Sign() <= 0 {
		return fmt.Errorf("insert %s price=%s: %w", order.ID, order.Price, ErrInvalidPrice)
	}
	if order.Remaining <= 0 {
		return fmt.Errorf("insert %s remaining=%d: %w", order.ID, order.Remaining, ErrInvalidQty)
	}

	key := priceKey(order.Price)
	if sb.levels[key] == nil {
		sb.levels[key] = &deque.Deque[*Order]{}
		heap.Push(sb.prices, order.Price)
	}
	sb.levels[key].PushBack(order)
	return nil
}

// peekBest returns the highest-priority live order without removing it.
// Tombstoned entries (Cancelled/Filled) found at the front are discarded on
// the way, drained price levels are popped off the heap.
func (sb *sideBook) peekBest() (*Order, bool) {
	for {
		bestPrice, ok := sb.prices.Peek()
		if !ok {
			return nil, false
		}

		q := sb.levels[priceKey(bestPrice)]
		for q.Len() > 0 {
			front := q.Front()
			if !front.isTerminal() {
				return front, true
			}
			q.PopFront()
		}

		heap.Pop(sb.prices)
		delete(sb.levels, priceKey(bestPrice))
	}
}

// popBest removes and returns the highest-priority live order.
func (sb *sideBook) popBest() (*Order, bool) {
	best, ok := sb.peekBest()
	if !ok {
		return nil, false
	}

	q := sb.levels[priceKey(best.Price)]
	q.PopFront()
	if q.Len() == 0 {
		heap.Pop(sb.prices)
		delete(sb.levels, priceKey(best.Price))
	}
	return best, true
}

func (sb *sideBook) bestPrice() (decimal.Decimal, bool) {
	best, ok := sb.peekBest()
	if !ok {
		return decimal.Decimal{}, false
	}
	return best.Price, true
}

// depth aggregates live quantity per price level, best first, at most
// maxLevels entries. maxLevels <= 0 means all levels.
func (sb *sideBook) depth(maxLevels int) []PriceLevel {
	prices := sb.prices.Prices()
	sort.Slice(prices, func(i, j int) bool {
		if sb.side == BUY {
			return prices[i].GreaterThan(prices[j])
		}
		return prices[i].LessThan(prices[j])
	})

	var out []PriceLevel
	for _, price := range prices {
		q := sb.levels[priceKey(price)]
		if q == nil {
			continue
		}
		var qty int64
		for i := 0; i < q.Len(); i++ {
			if o := q.At(i); !o.isTerminal() {
				qty += o.Remaining
			}
		}
		if qty == 0 {
			continue
		}
		out = append(out, PriceLevel{Price: price, Qty: qty})
		if maxLevels > 0 && len(out) == maxLevels {
			break
		}
	}
	return out
}
