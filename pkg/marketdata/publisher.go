package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/tradecore/matchengine/pkg/orderbook"
)

const (
	quoteKeyPrefix = "marketdata:quote:"
	depthKeyPrefix = "marketdata:depth:"
)

type QuoteSnapshot struct {
	Symbol    string           `json:"symbol"`
	Bid       *decimal.Decimal `json:"bid,omitempty"`
	Ask       *decimal.Decimal `json:"ask,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type DepthSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []DepthLevel `json:"bids"`
	Asks      []DepthLevel `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}

type DepthLevel struct {
	Price decimal.Decimal `json:"price"`
	Qty   int64           `json:"qty"`
}

// RedisPublisher caches the latest best bid/ask and depth snapshot per
// symbol in Redis, where market-data consumers read them. Snapshots expire
// so a stopped engine does not serve stale quotes forever.
type RedisPublisher struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPublisher(client *redis.Client, ttl time.Duration) *RedisPublisher {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisPublisher{client: client, ttl: ttl}
}

func (p *RedisPublisher) PublishQuote(ctx context.Context, symbol string, quote orderbook.Quote) error {
	snap := QuoteSnapshot{Symbol: symbol, Timestamp: time.Now()}
	if quote.HasBid {
		bid := quote.Bid
		snap.Bid = &bid
	}
	if quote.HasAsk {
		ask := quote.Ask
		snap.Ask = &ask
	}

	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, quoteKeyPrefix+symbol, b, p.ttl).Err()
}

func (p *RedisPublisher) PublishDepth(ctx context.Context, symbol string, bids, asks []orderbook.PriceLevel) error {
	snap := DepthSnapshot{
		Symbol:    symbol,
		Bids:      toDepthLevels(bids),
		Asks:      toDepthLevels(asks),
		Timestamp: time.Now(),
	}

	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, depthKeyPrefix+symbol, b, p.ttl).Err()
}

func toDepthLevels(levels []orderbook.PriceLevel) []DepthLevel {
	out := make([]DepthLevel, 0, len(levels))
	for _, l := range levels {
		out = append(out, DepthLevel{Price: l.Price, Qty: l.Qty})
	}
	return out
}
