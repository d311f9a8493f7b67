package eventstore

import "github.com/tradecore/matchengine/pkg/oms/model"

// EventStore is the audit boundary: every order status change and every
// execution lands here before any transport or storage sees it.
type EventStore interface {
	AddOrderEvent(ev *model.OrderEvent)
	AddTrade(trade *model.Trade)

	OrderEvents(orderID string) []*model.OrderEvent
	Trades(symbol string) []*model.Trade

	DeleteChainByOrderID(orderID string)
}
