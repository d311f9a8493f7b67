package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradecore/matchengine/pkg/orderbook"
)

const (
	numOrders = 1_000_000
	minPrice  = 100.0
	maxPrice  = 200.0
	minQty    = 1
	maxQty    = 100
)

func randomOrder(id int) *orderbook.Order {
	side := orderbook.BUY
	if rand.Intn(2) == 0 {
		side = orderbook.SELL
	}
	price := minPrice + rand.Float64()*(maxPrice-minPrice)
	qty := int64(rand.Intn(maxQty-minQty+1) + minQty)

	return &orderbook.Order{
		ID:     fmt.Sprintf("ORD-%06d", id),
		Symbol: "ABC",
		Side:   side,
		Price:  decimal.NewFromFloat(price).Round(2),
		Qty:    qty,
	}
}

func main() {
	ctx := context.Background()

	manager := orderbook.NewEngineManager(nil)
	defer manager.Stop()

	totalMatched := 0
	totalQty := int64(0)
	manager.RegisterTradeCallback(func(trades []*orderbook.Trade) {
		for _, t := range trades {
			totalMatched++
			totalQty += t.Qty
			if totalMatched <= 5 {
				log.Printf("Match: BUY[%s] <=> SELL[%s] @ %s Qty %d\n",
					t.BuyOrderID, t.SellOrderID, t.Price, t.Qty)
			}
		}
	})

	start := time.Now()
	for i := 0; i < numOrders; i++ {
		if _, _, err := manager.Submit(ctx, randomOrder(i)); err != nil {
			log.Fatalf("submit failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	log.Printf("orders=%d trades=%d qty=%d elapsed=%s rate=%.0f orders/s",
		numOrders, totalMatched, totalQty, elapsed,
		float64(numOrders)/elapsed.Seconds())
}
