package riskrule

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tradecore/matchengine/pkg/oms/model"
)

type priceBand struct {
	ceil  decimal.Decimal
	floor decimal.Decimal
}

// LimitPriceRule rejects orders priced outside the configured band for
// their symbol. Symbols without a band are unrestricted.
type LimitPriceRule struct {
	bands map[string]priceBand
}

func NewLimitPriceRule() *LimitPriceRule {
	return &LimitPriceRule{bands: make(map[string]priceBand)}
}

func (r *LimitPriceRule) SetBand(symbol string, floor, ceil decimal.Decimal) {
	r.bands[symbol] = priceBand{ceil: ceil, floor: floor}
}

func (r *LimitPriceRule) Check(order *model.SubmitOrder) error {
	band, ok := r.bands[order.Symbol]
	if !ok {
		return nil
	}
	if order.Price.GreaterThan(band.ceil) || order.Price.LessThan(band.floor) {
		return fmt.Errorf("price %s outside band [%s, %s] for %s",
			order.Price, band.floor, band.ceil, order.Symbol)
	}
	return nil
}
