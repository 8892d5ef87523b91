package engine

import "context"

// CheckResult is the outcome of a guardrails check.
type CheckResult struct {
	Allowed bool
	Warning string
}

// Guardrails gates runs per user, typically with rate limiting or a circuit
// breaker. Implementations are provided by the host application.
type Guardrails interface {
	Check(ctx context.Context, userID string) (*CheckResult, error)
	RecordSuccess(ctx context.Context, userID string)
}
