package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderEvent is one entry of the order status-change stream. It is emitted
// as plain data; transports and storage are up to the consumer.
type OrderEvent struct {
	EventID        string
	OrderID        string
	Symbol         string
	Side           OrderSide
	ExecType       OrderExecType
	Status         OrderStatus
	Price          decimal.Decimal
	LastQuantity   int64
	CumQuantity    int64
	LeavesQuantity int64
	Timestamp      time.Time
}

// Trade is the audit-stream form of one execution.
type Trade struct {
	Seq         uint64
	Symbol      string
	BuyOrderID  string
	SellOrderID string
	Price       decimal.Decimal
	Quantity    int64
	Timestamp   time.Time
}

func NewOrderEvent(order Order, execType OrderExecType, ts time.Time) *OrderEvent {
	return &OrderEvent{
		EventID:        NewEventID(order.OrderID, execType, order.CumQuantity),
		OrderID:        order.OrderID,
		Symbol:         order.Symbol,
		Side:           order.Side,
		ExecType:       execType,
		Status:         order.Status,
		Price:          order.LastPrice,
		LastQuantity:   order.LastQuantity,
		CumQuantity:    order.CumQuantity,
		LeavesQuantity: order.LeavesQuantity,
		Timestamp:      ts,
	}
}

// NewEventID is unique per (order, exec type, cumulative fill), so repeated
// trade events on one order get distinct ids.
func NewEventID(orderID string, execType OrderExecType, cumQty int64) string {
	return fmt.Sprintf("%s-%s-%d", orderID, execType, cumQty)
}
