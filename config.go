package priopool

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/savegress/priopool/logsink"
)

// Mode selects the pool's sizing regime.
type Mode int

const (
	// FixedThread keeps exactly MinThreads == MaxThreads workers alive for
	// the lifetime of the pool.
	FixedThread Mode = iota
	// MutableThread grows the worker population under submit-side
	// backpressure and shrinks it back down after worker idle timeouts.
	MutableThread
)

func (m Mode) String() string {
	if m == MutableThread {
		return "mutable"
	}
	return "fixed"
}

// PoolConfig is immutable after New/LoadPoolConfig returns it to the
// Supervisor; the three fields the Supervisor lets callers change at
// runtime (MaxTasks, Timeout, DefaultPriority) are mutated only through
// Pool.SetMaxTasks/SetTimeout/SetDefaultPriority, under the pool lock.
type PoolConfig struct {
	Mode            Mode          `yaml:"-"`
	FixedThread     bool          `yaml:"FIXED_THREAD"`
	Timeout         time.Duration `yaml:"-"`
	TimeoutMillis   int64         `yaml:"timeout"`
	DefaultPriority int           `yaml:"priority_level"`
	MaxTasks        int           `yaml:"max_task"`
	MaxThreads      int           `yaml:"max_threads"`
	MinThreads      int           `yaml:"min_threads"`

	// Ambient collaborators. All optional; sensible defaults are filled in
	// by Validate when left zero.
	Sink       logsink.Sink         // external logging sink (spec.md §4.5); nil means no logging
	Logger     *zap.Logger          // operational diagnostics logger; nil becomes zap.NewNop()
	Registerer prometheus.Registerer // metrics registry; nil becomes prometheus.DefaultRegisterer
}

// NewPoolConfig returns a PoolConfig with the given sizing. It does not
// check or cap any value; the hardware_concurrency bound and the other
// invariants are enforced by Validate.
func NewPoolConfig(mode Mode, minThreads, maxThreads, maxTasks int, timeout time.Duration, defaultPriority int) PoolConfig {
	return PoolConfig{
		Mode:            mode,
		FixedThread:     mode == FixedThread,
		Timeout:         timeout,
		TimeoutMillis:   timeout.Milliseconds(),
		DefaultPriority: defaultPriority,
		MaxTasks:        maxTasks,
		MaxThreads:      maxThreads,
		MinThreads:      minThreads,
	}
}

// LoadPoolConfig decodes a pool configuration document (spec.md §6) from a
// YAML file and validates it, mirroring the teacher repo family's own
// config-loading convention (see DESIGN.md).
func LoadPoolConfig(path string) (PoolConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return PoolConfig{}, fmt.Errorf("%w: reading %s: %v", ErrConfigInvalid, path, err)
	}

	var cfg PoolConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return PoolConfig{}, fmt.Errorf("%w: decoding %s: %v", ErrConfigInvalid, path, err)
	}
	cfg.Timeout = time.Duration(cfg.TimeoutMillis) * time.Millisecond
	if cfg.FixedThread {
		cfg.Mode = FixedThread
	} else {
		cfg.Mode = MutableThread
	}

	if err := cfg.Validate(); err != nil {
		return PoolConfig{}, err
	}
	return cfg, nil
}

// Validate enforces the invariants of spec.md §3: 1 ≤ MinThreads ≤
// MaxThreads ≤ hardware_concurrency, a positive MaxTasks, a non-negative
// DefaultPriority, and MinThreads == MaxThreads in FixedThread mode.
func (c *PoolConfig) Validate() error {
	hc := runtime.NumCPU()

	if c.MinThreads <= 0 {
		return fmt.Errorf("%w: min_threads must be > 0, got %d", ErrConfigInvalid, c.MinThreads)
	}
	if c.MaxThreads <= 0 {
		return fmt.Errorf("%w: max_threads must be > 0, got %d", ErrConfigInvalid, c.MaxThreads)
	}
	if c.MinThreads > c.MaxThreads {
		return fmt.Errorf("%w: min_threads (%d) > max_threads (%d)", ErrConfigInvalid, c.MinThreads, c.MaxThreads)
	}
	if c.MaxThreads > hc {
		return fmt.Errorf("%w: max_threads (%d) exceeds hardware_concurrency (%d)", ErrConfigInvalid, c.MaxThreads, hc)
	}
	if c.MaxTasks <= 0 {
		return fmt.Errorf("%w: max_tasks must be > 0, got %d", ErrConfigInvalid, c.MaxTasks)
	}
	if c.DefaultPriority < 0 {
		return fmt.Errorf("%w: default_priority must be >= 0, got %d", ErrConfigInvalid, c.DefaultPriority)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be > 0, got %v", ErrConfigInvalid, c.Timeout)
	}
	if c.Mode == FixedThread && c.MinThreads != c.MaxThreads {
		return fmt.Errorf("%w: FixedThread mode requires min_threads == max_threads (%d != %d)", ErrConfigInvalid, c.MinThreads, c.MaxThreads)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Registerer == nil {
		c.Registerer = prometheus.DefaultRegisterer
	}
	return nil
}
