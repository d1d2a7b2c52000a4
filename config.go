package dbusipc

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
)

// Config is parsed once at Initialize time from the environment
// variables of spec.md §6/SPEC_FULL.md §2A, replacing hand-rolled
// os.Getenv/strconv parsing with github.com/caarlos0/env/v11, the
// pattern dmitrymomot-foundation/core/config uses.
type Config struct {
	MaxDispatchProcTimeMsec int `env:"DBUSIPC_MAX_DISPATCH_PROC_TIME_MSEC" envDefault:"100"`
	DispatchPriority        int `env:"DBUSIPC_DISPATCH_PRIORITY" envDefault:"0"`
}

// LoadConfig parses Config from the process environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errInternal(err)
	}
	return cfg, nil
}

// MaxDispatchProcTime returns the configured slow-callback warning
// threshold as a time.Duration.
func (c *Config) MaxDispatchProcTime() time.Duration {
	return time.Duration(c.MaxDispatchProcTimeMsec) * time.Millisecond
}

// Priority returns the configured dispatch priority unchanged; it is
// not clamped. Out-of-range values are rejected by
// Dispatcher.SetPriority at Initialize time (SPEC_FULL.md §9 Open
// Question 3).
func (c *Config) Priority() dispatch.Priority {
	return dispatch.Priority(c.DispatchPriority)
}
