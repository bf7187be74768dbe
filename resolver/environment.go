// ABOUTME: This file detects whether the process runs on metered cloud infrastructure
// ABOUTME: The resulting CostEnvironment tunes retry ceilings, timeouts, and strategy order
package resolver

import (
	"os"
	"time"
)

// cloudSignals are environment variables set by the managed platforms we
// deploy to. Any one of them being present means outbound requests cost
// money and resolution should be tuned for economy.
var cloudSignals = []string{
	"K_SERVICE",
	"FUNCTION_TARGET",
	"AWS_LAMBDA_FUNCTION_NAME",
	"AWS_EXECUTION_ENV",
	"KUBERNETES_SERVICE_HOST",
	"DYNO",
	"GAE_ENV",
}

// CostEnvironment is computed once at startup and read-only afterwards.
type CostEnvironment struct {
	Cloud          bool
	RPCMaxAttempts int
	RequestTimeout time.Duration
}

// NewCostEnvironment builds the tuning profile for an explicit cloud flag.
// Cloud keeps attempts and timeouts short to bound spend; local development
// can afford to be patient.
func NewCostEnvironment(cloud bool) CostEnvironment {
	if cloud {
		return CostEnvironment{
			Cloud:          true,
			RPCMaxAttempts: 3,
			RequestTimeout: 10 * time.Second,
		}
	}
	return CostEnvironment{
		Cloud:          false,
		RPCMaxAttempts: 5,
		RequestTimeout: 20 * time.Second,
	}
}

// DetectCostEnvironment inspects the process environment for cloud platform
// signals. Called once from main; tests construct CostEnvironment directly.
func DetectCostEnvironment() CostEnvironment {
	for _, name := range cloudSignals {
		if os.Getenv(name) != "" {
			return NewCostEnvironment(true)
		}
	}
	return NewCostEnvironment(false)
}
