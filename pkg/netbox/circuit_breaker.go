/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package netbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/models"
)

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 2
	defaultOpenTimeout      = 30 * time.Second
)

// CircuitBreakerState is the position of the breaker.
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig is the circuit_breaker section of the NetBox config.
// Zero values take the defaults.
type CircuitBreakerConfig struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold" validate:"gte=0"`
	// SuccessThreshold half-open successes close it again.
	SuccessThreshold int `json:"success_threshold" yaml:"success_threshold" validate:"gte=0"`
	// OpenTimeout is how long the circuit rejects requests before probing.
	OpenTimeout models.Duration `json:"open_timeout" yaml:"open_timeout"`
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = defaultFailureThreshold
	}

	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = defaultSuccessThreshold
	}

	if c.OpenTimeout <= 0 {
		c.OpenTimeout = models.Duration(defaultOpenTimeout)
	}

	return c
}

// CircuitBreaker stops a run from hammering a NetBox instance that keeps
// failing with transport errors or 5xx responses.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	logger logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    CircuitBreakerState
	failures int
	probes   int
	openedAt time.Time
}

func NewCircuitBreaker(name string, config CircuitBreakerConfig, log logger.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		name:   name,
		config: config.withDefaults(),
		logger: log,
		now:    time.Now,
	}
}

// Execute runs fn unless the circuit is open. Calls that fail because ctx
// ended are not counted.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if wait, ok := cb.admit(ctx); !ok {
		return fmt.Errorf("%w: %s, retry in %s", ErrCircuitOpen, cb.name, wait.Round(time.Second))
	}

	err := fn()
	if err != nil && ctx.Err() != nil {
		return err
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failed(ctx)
	} else {
		cb.succeeded(ctx)
	}

	return err
}

// admit reports whether a request may pass and, if not, how long the
// circuit stays open.
func (cb *CircuitBreaker) admit(ctx context.Context) (time.Duration, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return 0, true
	}

	remaining := time.Duration(cb.config.OpenTimeout) - cb.now().Sub(cb.openedAt)
	if remaining > 0 {
		return remaining, false
	}

	cb.probes = 0
	cb.transition(ctx, StateHalfOpen)

	return 0, true
}

func (cb *CircuitBreaker) failed(ctx context.Context) {
	cb.failures++

	switch {
	case cb.state == StateHalfOpen,
		cb.state == StateClosed && cb.failures >= cb.config.FailureThreshold:
		cb.openedAt = cb.now()
		cb.transition(ctx, StateOpen)
	case cb.state == StateOpen:
		cb.openedAt = cb.now()
	}
}

func (cb *CircuitBreaker) succeeded(ctx context.Context) {
	if cb.state != StateHalfOpen {
		cb.failures = 0
		return
	}

	cb.probes++
	if cb.probes >= cb.config.SuccessThreshold {
		cb.failures = 0
		cb.transition(ctx, StateClosed)
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(ctx context.Context, to CircuitBreakerState) {
	from := cb.state
	cb.state = to

	recordBreakerTransition(ctx, cb.name, to.String())

	event := cb.logger.Info()
	if to == StateOpen {
		event = cb.logger.Warn()
	}

	event.
		Str("circuit_breaker", cb.name).
		Str("from", from.String()).
		Str("to", to.String()).
		Int("failures", cb.failures).
		Msg("Circuit breaker state changed")
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}
