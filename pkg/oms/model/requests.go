package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubmitOrder struct {
	Account      string
	Symbol       string
	Side         OrderSide
	Price        decimal.Decimal
	Quantity     int64
	TransactTime time.Time
}

type CancelOrder struct {
	OrderID string
}

// CancelStatus distinguishes a cancel that took effect from one that
// arrived after the order was already terminal. The latter is reported,
// not treated as an error.
type CancelStatus string

const (
	CancelStatusCancelled CancelStatus = "Cancelled"
	CancelStatusNotActive CancelStatus = "NotActive"
)
