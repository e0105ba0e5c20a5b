package config

import (
	"context"
)

// NewContext derives a per-command context from cfg.Timeout. A nil config or a non-positive
// timeout yields a context that is only cancelled by the returned function.
func NewContext(parent context.Context, cfg *Config) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if cfg == nil || cfg.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, cfg.Timeout)
}
