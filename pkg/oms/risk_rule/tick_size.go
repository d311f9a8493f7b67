package riskrule

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/tradecore/matchengine/pkg/oms/model"
)

type tickSizeConfig struct {
	MaxPrice decimal.Decimal `json:"maxPrice"` // zero = no upper bound
	Step     decimal.Decimal `json:"step"`
}

// TickSizeRule checks that prices align with the tick grid configured per
// symbol. Config is a JSON map of symbol to price bands.
type TickSizeRule struct {
	Config map[string][]tickSizeConfig
}

func NewTickSizeRuleFromFile(path string) (*TickSizeRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg map[string][]tickSizeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &TickSizeRule{Config: cfg}, nil
}

func (r *TickSizeRule) Check(order *model.SubmitOrder) error {
	rules, ok := r.Config[order.Symbol]
	if !ok { // no config, no rule
		return nil
	}

	for _, rule := range rules {
		if rule.MaxPrice.IsZero() || order.Price.LessThanOrEqual(rule.MaxPrice) {
			if rule.Step.Sign() <= 0 {
				return nil
			}
			if !order.Price.Mod(rule.Step).IsZero() {
				return fmt.Errorf("price %s off tick grid %s for %s",
					order.Price, rule.Step, order.Symbol)
			}
			return nil
		}
	}

	return nil
}
