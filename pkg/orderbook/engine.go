package orderbook

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type commandKind int

const (
	cmdSubmit commandKind = iota
	cmdCancel
	cmdBestBidAsk
	cmdDepth
)

type command struct {
	kind    commandKind
	order   *Order
	orderID string
	side    Side
	levels  int
	resp    chan cmdResp
}

type cmdResp struct {
	order  Order // snapshot, safe to read after the engine moves on
	trades []*Trade
	quote  Quote
	depth  []PriceLevel
	err    error
}

// Quote is a best bid/ask snapshot. Zero-value prices with ok=false mean
// the side is empty.
type Quote struct {
	Bid, Ask       decimal.Decimal
	HasBid, HasAsk bool
}

// Engine owns one instrument's order book. All requests go through a single
// ordered channel consumed by one goroutine, so matching for the instrument
// is strictly serial: a cancel enqueued before a crossing order takes effect
// first, and the matching loop for one order always runs to completion
// before the next request is seen. No locks are needed inside the loop.
type Engine struct {
	symbol string
	book   *orderBook

	cmds     chan command
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	tradeCallbacks []func([]*Trade)
	orderCallbacks []func(Order)
}

func newEngine(symbol string, buffer int) *Engine {
	return &Engine{
		symbol: symbol,
		book:   newOrderBook(symbol),
		cmds:   make(chan command, buffer),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (e *Engine) shutdown() {
	e.stopOnce.Do(func() { close(e.stop) })
	<-e.done
}

func (e *Engine) run() {
	defer close(e.done)

	for {
		select {
		case cmd := <-e.cmds:
			cmd.resp <- e.apply(cmd)
		case <-e.stop:
			// drain what was already enqueued, then exit
			for {
				select {
				case cmd := <-e.cmds:
					cmd.resp <- e.apply(cmd)
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) apply(cmd command) cmdResp {
	switch cmd.kind {
	case cmdSubmit:
		order, trades, err := e.book.submit(cmd.order)
		if err != nil {
			e.reportCorrupt(err)
			return cmdResp{err: err}
		}
		e.publish(*order, trades)
		return cmdResp{order: *order, trades: trades}

	case cmdCancel:
		order, err := e.book.cancel(cmd.orderID)
		if err != nil {
			e.reportCorrupt(err)
			return cmdResp{err: err}
		}
		e.publish(*order, nil)
		return cmdResp{order: *order}

	case cmdBestBidAsk:
		bid, ask, okBid, okAsk := e.book.bestBidAsk()
		return cmdResp{quote: Quote{Bid: bid, Ask: ask, HasBid: okBid, HasAsk: okAsk}}

	case cmdDepth:
		return cmdResp{depth: e.book.depth(cmd.side, cmd.levels)}
	}
	return cmdResp{}
}

// reportCorrupt surfaces a broken-invariant book loudly. The book already
// refuses all further requests; there is nothing to repair here.
func (e *Engine) reportCorrupt(err error) {
	if e.book.corrupt {
		zap.S().Errorw("matching halted, book invariant violated",
			"symbol", e.symbol, "error", err)
	}
}

func (e *Engine) publish(order Order, trades []*Trade) {
	for _, cb := range e.orderCallbacks {
		cb(order)
	}
	if len(trades) > 0 {
		for _, cb := range e.tradeCallbacks {
			cb(trades)
		}
	}
}

func (e *Engine) send(ctx context.Context, cmd command) (cmdResp, error) {
	cmd.resp = make(chan cmdResp, 1)
	select {
	case e.cmds <- cmd:
	case <-e.stop:
		return cmdResp{}, ErrEngineStopped
	case <-ctx.Done():
		return cmdResp{}, ctx.Err()
	}

	select {
	case r := <-cmd.resp:
		return r, nil
	case <-e.done:
		return cmdResp{}, ErrEngineStopped
	}
}

// Submit admits a limit order, matches it and returns the resulting order
// snapshot plus any trades, in execution order.
func (e *Engine) Submit(ctx context.Context, order *Order) (Order, []*Trade, error) {
	r, err := e.send(ctx, command{kind: cmdSubmit, order: order})
	if err != nil {
		return Order{}, nil, err
	}
	return r.order, r.trades, r.err
}

// Cancel marks the order cancelled. ErrOrderNotFound covers ids this book
// never saw as well as orders already terminal.
func (e *Engine) Cancel(ctx context.Context, orderID string) (Order, error) {
	r, err := e.send(ctx, command{kind: cmdCancel, orderID: orderID})
	if err != nil {
		return Order{}, err
	}
	return r.order, r.err
}

func (e *Engine) BestBidAsk(ctx context.Context) (Quote, error) {
	r, err := e.send(ctx, command{kind: cmdBestBidAsk})
	if err != nil {
		return Quote{}, err
	}
	return r.quote, r.err
}

func (e *Engine) Depth(ctx context.Context, side Side, levels int) ([]PriceLevel, error) {
	r, err := e.send(ctx, command{kind: cmdDepth, side: side, levels: levels})
	if err != nil {
		return nil, err
	}
	return r.depth, r.err
}
