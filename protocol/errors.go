package protocol

import "fmt"

// PreconditionError reports a domain rule blocking a requested draft before
// assembly is attempted (delisted asset, empty reference set, insufficient
// account deposit).
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: precondition failed: %s", e.Op, e.Reason)
}

// InvalidRefError reports a malformed record reference selector.
type InvalidRefError struct {
	Input string
}

func (e *InvalidRefError) Error() string {
	return fmt.Sprintf("invalid record reference %q, want txhash#index", e.Input)
}

// ConfigError reports configuration missing or invalid for the requested
// path. Draft operations require the assembler endpoint; read operations only
// raise this for an unusable network selection.
type ConfigError struct {
	Missing string // unset variable, when that is the cause
	Reason  string // any other configuration problem
}

func (e *ConfigError) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("configuration error: %s is not set", e.Missing)
	}
	return "configuration error: " + e.Reason
}
