package orderbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

func (s Side) opposite() Side {
	if s == BUY {
		return SELL
	}
	return BUY
}

type OrderStatus string

const (
	StatusNew             OrderStatus = "New"
	StatusPartiallyFilled OrderStatus = "PartiallyFilled"
	StatusFilled          OrderStatus = "Filled"
	StatusCancelled       OrderStatus = "Cancelled"
)

// Order is one resting or incoming request. ID, Symbol, Side, Price and Qty
// are fixed at admission; Remaining and Status only move through applyFill
// and markCancelled.
type Order struct {
	ID        string
	Symbol    string
	Side      Side
	Price     decimal.Decimal
	Qty       int64
	Remaining int64
	Seq       uint64
	Status    OrderStatus
}

func (o *Order) isTerminal() bool {
	return o.Status == StatusFilled || o.Status == StatusCancelled
}

// applyFill decrements Remaining by qty and moves Status to PartiallyFilled
// or Filled. Remaining never increases and never goes below zero.
func (o *Order) applyFill(qty int64) error {
	if o.isTerminal() {
		return fmt.Errorf("fill on terminal order %s: %w", o.ID, errOrderTerminal)
	}
	if qty <= 0 || qty > o.Remaining {
		return fmt.Errorf("fill qty %d on order %s with remaining %d: %w", qty, o.ID, o.Remaining, errInvalidFill)
	}

	o.Remaining -= qty
	if o.Remaining == 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
	return nil
}

func (o *Order) markCancelled() error {
	if o.isTerminal() {
		return errOrderTerminal
	}
	o.Status = StatusCancelled
	return nil
}
