package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradecore/matchengine/pkg/orderbook"
)

type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "New"
	OrderStatusPartiallyFilled OrderStatus = "PartiallyFilled"
	OrderStatusFilled          OrderStatus = "Filled"
	OrderStatusCancelled       OrderStatus = "Cancelled"
	OrderStatusRejected        OrderStatus = "Rejected"
)

type OrderExecType string

const (
	ExecTypeNew       OrderExecType = "New"
	ExecTypeTrade     OrderExecType = "Trade"
	ExecTypeCancelled OrderExecType = "Cancelled"
	ExecTypeRejected  OrderExecType = "Rejected"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Order is the management-side record of one admitted order. The matching
// core owns the live book entry; this record tracks the reportable view
// (cum/leaves quantities, last execution) and is updated from trades.
type Order struct {
	OrderID string
	Account string

	Symbol       string
	Side         OrderSide
	Price        decimal.Decimal
	Quantity     int64
	TransactTime time.Time

	Seq            uint64
	Status         OrderStatus
	CumQuantity    int64
	LeavesQuantity int64
	LastQuantity   int64
	LastPrice      decimal.Decimal
}

func (o *Order) IsEnd() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

func (o *Order) CanCancel() bool {
	return !o.IsEnd()
}

// UpdateAdmission records the engine-assigned sequence number. Fills are
// applied separately, trade by trade, so the record stays consistent with
// the trade stream.
func (o *Order) UpdateAdmission(snap orderbook.Order) {
	o.Seq = snap.Seq
}

// UpdateTrade applies one execution to the record. Works for both the
// aggressor and the resting counterparty.
func (o *Order) UpdateTrade(trade *orderbook.Trade) {
	o.CumQuantity += trade.Qty
	o.LeavesQuantity = o.Quantity - o.CumQuantity
	o.LastQuantity = trade.Qty
	o.LastPrice = trade.Price

	if o.LeavesQuantity == 0 {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartiallyFilled
	}
}

func (o *Order) UpdateCancel() {
	o.Status = OrderStatusCancelled
	o.LeavesQuantity = 0
}
