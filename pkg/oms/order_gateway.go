package oms

import (
	"context"

	"github.com/tradecore/matchengine/pkg/oms/model"
)

// OrderGateway is the outbound side of the order flow: execution reports
// back to whoever submitted, trades out to the audit/persistence stream.
// Implementations must not block the matching path for long; reports are
// plain data and may be shipped over any transport.
type OrderGateway interface {
	Start(ctx context.Context) error

	OnOrderReport(ctx context.Context, order model.Order)
	OnTrade(ctx context.Context, trade *model.Trade)
}
