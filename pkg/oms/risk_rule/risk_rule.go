package riskrule

import "github.com/tradecore/matchengine/pkg/oms/model"

// RiskRule rejects a submission before it reaches the matching engine.
// Rejected orders leave no state behind.
type RiskRule interface {
	Check(order *model.SubmitOrder) error
}
