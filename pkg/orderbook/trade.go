package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one execution. Price is always the resting order's limit price.
type Trade struct {
	Seq         uint64
	Symbol      string
	BuyOrderID  string
	SellOrderID string
	Price       decimal.Decimal
	Qty         int64
	Timestamp   time.Time
}

// PriceLevel is one aggregated depth entry.
type PriceLevel struct {
	Price decimal.Decimal
	Qty   int64
}
