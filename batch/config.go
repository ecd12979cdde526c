package batch

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Default configuration values used when New is given a nil Config.
const (
	DefaultBatchSize = 10
	DefaultLimit     = 100
	DefaultInterval  = time.Second
	DefaultTimeout   = 30 * time.Second
)

// Values holds the engine configuration.
type Values struct {
	// BatchSize is both the flush threshold and the maximum number of
	// items taken per flush. Must be positive.
	BatchSize int `json:"batchSize"`

	// Interval is the period between scheduled flush attempts. Must be
	// positive.
	Interval time.Duration `json:"interval"`

	// Limit is the maximum number of queued items. Admissions beyond it
	// fail with ErrCapacityExceeded. Must be at least BatchSize.
	Limit int `json:"limit"`

	// Timeout is the time allowed for one flush. When it elapses first,
	// every item taken by that flush is rejected with ErrTimedOut and the
	// in-flight call to the processing function is abandoned. Must be
	// positive.
	Timeout time.Duration `json:"timeout"`
}

// Validate checks the values against their documented constraints.
func (v Values) Validate() error {
	if v.BatchSize <= 0 {
		return errors.New("batch: BatchSize must be positive")
	}
	if v.Interval <= 0 {
		return errors.New("batch: Interval must be positive")
	}
	if v.Limit < v.BatchSize {
		return errors.New("batch: Limit must be at least BatchSize")
	}
	if v.Timeout <= 0 {
		return errors.New("batch: Timeout must be positive")
	}
	return nil
}

// Config supplies the values the engine reads at every decision point, so
// implementations may change them at runtime. If the values are constant,
// use NewConstantConfig.
//
// Implementations that mutate values concurrently must make Get safe to
// call from any goroutine.
type Config interface {
	// Get returns the current configuration values.
	Get() Values
}

// NewConstantConfig returns a Config with fixed values. A nil values
// pointer selects the defaults.
func NewConstantConfig(values *Values) *ConstantConfig {
	if values == nil {
		return &ConstantConfig{values: Values{
			BatchSize: DefaultBatchSize,
			Interval:  DefaultInterval,
			Limit:     DefaultLimit,
			Timeout:   DefaultTimeout,
		}}
	}
	return &ConstantConfig{values: *values}
}

// ConstantConfig is a Config whose values never change after creation.
type ConstantConfig struct {
	values Values
}

// Get implements the Config interface.
func (c *ConstantConfig) Get() Values {
	return c.values
}

// NewDynamicConfig returns a thread-safe Config whose values can be
// replaced while the engine is running. A nil values pointer selects the
// defaults.
func NewDynamicConfig(values *Values) *DynamicConfig {
	c := &DynamicConfig{}
	if values == nil {
		c.values = NewConstantConfig(nil).Get()
	} else {
		c.values = *values
	}
	return c
}

// DynamicConfig is a Config that can be updated at runtime. The engine
// picks up new values on the next admission or flush.
type DynamicConfig struct {
	mu     sync.RWMutex
	values Values
}

// Get implements the Config interface.
func (c *DynamicConfig) Get() Values {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values
}

// Update replaces the configuration values. Invalid values are rejected
// and the previous ones remain in effect.
func (c *DynamicConfig) Update(values Values) error {
	if err := values.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.values = values
	c.mu.Unlock()
	return nil
}

// fixValues normalizes values read from a Config so a misbehaving dynamic
// implementation cannot wedge the engine at runtime.
func fixValues(v Values) Values {
	if v.BatchSize <= 0 {
		v.BatchSize = DefaultBatchSize
	}
	if v.Interval <= 0 {
		v.Interval = DefaultInterval
	}
	if v.Limit < v.BatchSize {
		v.Limit = v.BatchSize
	}
	if v.Timeout <= 0 {
		v.Timeout = DefaultTimeout
	}
	return v
}
