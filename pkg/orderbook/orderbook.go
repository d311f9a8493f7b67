package orderbook

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// orderBook pairs the bid and ask side books of one instrument. It is not
// safe for concurrent use; the engine serializes all access to it.
type orderBook struct {
	symbol string

	bids *sideBook
	asks *sideBook

	// ordersByID also holds the tombstone status used by lazy deletion.
	ordersByID map[string]*Order

	orderSeq uint64
	tradeSeq uint64

	// set when the no-crossing invariant was observed broken. The book is
	// unusable from then on.
	corrupt bool
}

func newOrderBook(symbol string) *orderBook {
	return &orderBook{
		symbol:     symbol,
		bids:       newSideBook(BUY),
		asks:       newSideBook(SELL),
		ordersByID: make(map[string]*Order),
	}
}

func (ob *orderBook) own(side Side) *sideBook {
	if side == BUY {
		return ob.bids
	}
	return ob.asks
}

// submit admits one incoming limit order, runs the matching loop to
// completion and rests any remainder. It returns the admitted order
// (with final status) and the trades produced, in execution order.
func (ob *orderBook) submit(order *Order) (*Order, []*Trade, error) {
	if ob.corrupt {
		return nil, nil, fmt.Errorf("book %s: %w", ob.symbol, ErrCrossedBook)
	}
	if order.Price.Sign() <= 0 {
		return nil, nil, fmt.Errorf("order %s price=%s: %w", order.ID, order.Price, ErrInvalidPrice)
	}
	if order.Qty <= 0 {
		return nil, nil, fmt.Errorf("order %s qty=%d: %w", order.ID, order.Qty, ErrInvalidQty)
	}
	if _, ok := ob.ordersByID[order.ID]; ok {
		return nil, nil, fmt.Errorf("order %s: %w", order.ID, ErrDuplicateID)
	}

	// admission: sequence assignment, then the order exists
	ob.orderSeq++
	order.Seq = ob.orderSeq
	order.Remaining = order.Qty
	order.Status = StatusNew
	ob.ordersByID[order.ID] = order

	trades := ob.matchLoop(order)

	if order.Remaining > 0 {
		if err := ob.own(order.Side).insert(order); err != nil {
			return nil, nil, err
		}
	}

	if err := ob.checkUncrossed(); err != nil {
		return nil, nil, err
	}

	return order, trades, nil
}

// matchLoop trades the incoming order against the opposite side while the
// book is crossed. Execution price is always the resting order's limit, so
// the aggressor gets the improvement when its limit is better. A partially
// filled resting order keeps its seq and stays at the front of its level.
func (ob *orderBook) matchLoop(incoming *Order) []*Trade {
	counter := ob.own(incoming.Side.opposite())

	var trades []*Trade
	for incoming.Remaining > 0 {
		resting, ok := counter.peekBest()
		if !ok || !crosses(incoming, resting) {
			break
		}

		matchQty := min(incoming.Remaining, resting.Remaining)

		ob.tradeSeq++
		trade := &Trade{
			Seq:       ob.tradeSeq,
			Symbol:    ob.symbol,
			Price:     resting.Price,
			Qty:       matchQty,
			Timestamp: time.Now(),
		}
		if incoming.Side == BUY {
			trade.BuyOrderID, trade.SellOrderID = incoming.ID, resting.ID
		} else {
			trade.BuyOrderID, trade.SellOrderID = resting.ID, incoming.ID
		}
		trades = append(trades, trade)

		_ = incoming.applyFill(matchQty)
		_ = resting.applyFill(matchQty)

		if resting.Remaining == 0 {
			// terminal now: its deque entry is a tombstone, peekBest
			// discards it on the next pass
			delete(ob.ordersByID, resting.ID)
		}
	}
	return trades
}

func crosses(incoming, resting *Order) bool {
	if incoming.Side == BUY {
		return resting.Price.LessThanOrEqual(incoming.Price)
	}
	return resting.Price.GreaterThanOrEqual(incoming.Price)
}

// checkUncrossed verifies the post-match invariant: bestBid < bestAsk or a
// side is empty. A violation is a defect, never repaired in place.
func (ob *orderBook) checkUncrossed() error {
	bid, okBid := ob.bids.bestPrice()
	ask, okAsk := ob.asks.bestPrice()
	if okBid && okAsk && bid.GreaterThanOrEqual(ask) {
		ob.corrupt = true
		return fmt.Errorf("book %s: bid=%s ask=%s: %w", ob.symbol, bid, ask, ErrCrossedBook)
	}
	return nil
}

// cancel flips the order to Cancelled and leaves the book entry behind as a
// tombstone for peekBest/popBest to discard. Terminal orders are already
// gone from ordersByID, so they report ErrOrderNotFound here; the layer
// above keeps the order records needed to tell "unknown" from "not active".
func (ob *orderBook) cancel(orderID string) (*Order, error) {
	if ob.corrupt {
		return nil, fmt.Errorf("book %s: %w", ob.symbol, ErrCrossedBook)
	}

	order, ok := ob.ordersByID[orderID]
	if !ok {
		return nil, fmt.Errorf("cancel %s: %w", orderID, ErrOrderNotFound)
	}

	_ = order.markCancelled()
	delete(ob.ordersByID, orderID)
	return order, nil
}

func (ob *orderBook) bestBidAsk() (bid, ask decimal.Decimal, okBid, okAsk bool) {
	bid, okBid = ob.bids.bestPrice()
	ask, okAsk = ob.asks.bestPrice()
	return
}

func (ob *orderBook) depth(side Side, levels int) []PriceLevel {
	return ob.own(side).depth(levels)
}
