package e2e

import (
	"github.com/cucumber/godog"

	"idledger/e2e/steps/common"
	"idledger/e2e/steps/ledger"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register ledger-specific steps
	ledger.RegisterSteps(ctx, tc)
}
