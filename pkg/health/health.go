package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ai-character-chat/backend/pkg/logger"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
	// StatusDegraded indicates a component is working but with reduced functionality
	StatusDegraded Status = "degraded"
)

// Component represents a system component that can be health-checked
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Critical    bool      `json:"critical"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check represents a health check function
type Check func(ctx context.Context) (Status, string, error)

type registration struct {
	check    Check
	critical bool
}

// Checker manages health checks for the system
type Checker struct {
	checks     map[string]registration
	components map[string]*Component
	timeout    time.Duration
	mutex      sync.RWMutex
	log        *logger.Logger
}

// NewChecker creates a new health checker. Each check gets at most timeout.
func NewChecker(log *logger.Logger, timeout time.Duration) *Checker {
	checker := &Checker{
		checks:     make(map[string]registration),
		components: make(map[string]*Component),
		timeout:    timeout,
		log:        log.WithComponent("health"),
	}

	checker.RegisterCheck("self", false, func(context.Context) (Status, string, error) {
		return StatusUp, "Health checker is running", nil
	})

	return checker
}

// RegisterCheck registers a new health check. A critical component that is
// down makes the whole system unhealthy.
func (c *Checker) RegisterCheck(name string, critical bool, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = registration{check: check, critical: critical}
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Critical:    critical,
		Description: "Not checked yet",
	}
}

// RunChecks executes all registered health checks
func (c *Checker) RunChecks(ctx context.Context) {
	c.mutex.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	c.mutex.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		c.mutex.RLock()
		reg := c.checks[name]
		c.mutex.RUnlock()

		checkCtx := ctx
		cancel := func() {}
		if c.timeout > 0 {
			checkCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}
		status, description, err := reg.check(checkCtx)
		cancel()

		c.mutex.Lock()
		component := c.components[name]
		component.Status = status
		component.Description = description
		component.LastChecked = time.Now()
		if err != nil {
			component.Error = err.Error()
		} else {
			component.Error = ""
		}
		c.mutex.Unlock()

		if err != nil {
			c.log.Warn("Health check failed",
				"component", name,
				"status", string(status),
				"error", err.Error(),
			)
		} else {
			c.log.Debug("Health check completed",
				"component", name,
				"status", string(status),
			)
		}
	}
}

// GetStatus returns the current health status
func (c *Checker) GetStatus() map[string]*Component {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make(map[string]*Component, len(c.components))
	for k, v := range c.components {
		componentCopy := *v
		result[k] = &componentCopy
	}

	return result
}

// IsSystemHealthy returns true if all critical components are up
func (c *Checker) IsSystemHealthy() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, component := range c.components {
		if component.Critical && component.Status == StatusDown {
			return false
		}
	}

	return true
}

// RegisterCredentialCheck reports whether an upstream credential is present.
// A missing credential only degrades the system; requests fail individually.
func (c *Checker) RegisterCredentialCheck(name string, configured func() bool) {
	c.RegisterCheck(name, false, func(context.Context) (Status, string, error) {
		if !configured() {
			return StatusDegraded, "Credential is not configured", nil
		}
		return StatusUp, "Credential is configured", nil
	})
}

// RegisterPingCheck registers a check backed by a connectivity probe
func (c *Checker) RegisterPingCheck(name string, critical bool, ping func(ctx context.Context) error) {
	c.RegisterCheck(name, critical, func(ctx context.Context) (Status, string, error) {
		start := time.Now()
		if err := ping(ctx); err != nil {
			if critical {
				return StatusDown, fmt.Sprintf("%s is unreachable", name), err
			}
			return StatusDegraded, fmt.Sprintf("%s is unreachable", name), err
		}
		return StatusUp, fmt.Sprintf("%s is responding (latency: %s)", name, time.Since(start)), nil
	})
}
