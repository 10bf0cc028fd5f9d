package health

import (
	"context"
	"errors"
)

// Degradable is implemented by stores that absorb backend failures and flag
// the outage instead of returning errors.
type Degradable interface {
	IsDegraded() bool
}

// StoreChecker reports failure while the conversation turn store runs
// degraded. A degraded store keeps serving requests without memory, so this
// trips readiness without affecting liveness.
func StoreChecker(store Degradable) Checker {
	return Checker{
		Name: "memory",
		Check: func(_ context.Context) error {
			if store.IsDegraded() {
				return errors.New("turn store degraded, running without memory")
			}
			return nil
		},
	}
}

// ProviderChecker reports whether an LLM escalation backend is wired. The
// model function typically comes from the escalation client; nil means no
// backend was configured.
func ProviderChecker(model func() string) Checker {
	return Checker{
		Name: "llm",
		Check: func(_ context.Context) error {
			if model == nil {
				return errors.New("no LLM escalation backend configured")
			}
			if model() == "" {
				return errors.New("LLM escalation backend reports no model")
			}
			return nil
		},
	}
}
