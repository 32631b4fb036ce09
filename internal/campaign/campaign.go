// Package campaign implements the sequential experimental-design engine:
// an append-only observation log, a policy contract for proposing the next
// measurements, and the orchestrator that drives the prime/iterate loop
// against a ground-truth experiment until the observation budget is spent.
package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/argonlab/campaign-core/internal/experiment"
	"github.com/argonlab/campaign-core/pkg/logger"
)

// State is the campaign lifecycle state
type State string

const (
	StateUnprimed State = "unprimed"
	StatePrimed   State = "primed"
	StateRunning  State = "running"
	StateStopped  State = "stopped"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// Proposal is the outcome of one policy step: the candidate batch to
// measure next, its diagnostic record, and whether the campaign should
// continue after the batch is appended.
type Proposal struct {
	// Candidates are the points to measure next; empty when the budget
	// is already exhausted
	Candidates [][]float64

	// Record is the iteration record to append alongside the batch
	Record IterationRecord

	// Continue reports whether another iteration should run after this
	// batch is appended
	Continue bool
}

// Policy decides the next candidate batch given the accumulated data.
// A policy never mutates the dataset.
type Policy interface {
	Step(data *Dataset) (*Proposal, error)
}

// PrimingConfig selects the initial design used when Run starts on an
// empty dataset.
type PrimingConfig struct {
	Design string
	N      int
	Seed   int64
}

// Campaign owns one full run of the sequential acquisition loop: an
// experiment oracle, the observation log, and a policy. Iterations are
// strictly sequential; the dataset is mutated only by the orchestrator,
// once per iteration, after the experiment evaluation completes.
type Campaign struct {
	exp     experiment.Experiment
	data    *Dataset
	policy  Policy
	priming PrimingConfig
	log     *slog.Logger

	state atomic.Value // State
}

// Option configures a Campaign
type Option func(*Campaign)

// WithLogger sets the campaign's logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Campaign) {
		c.log = l
	}
}

// WithPriming sets the initial design used when the dataset is empty at
// Run time. Without this option an unprimed campaign fails to run: the
// caller must either prime the dataset beforehand or opt in here.
func WithPriming(cfg PrimingConfig) Option {
	return func(c *Campaign) {
		c.priming = cfg
	}
}

// New creates a campaign over the given experiment, dataset, and policy
func New(exp experiment.Experiment, data *Dataset, policy Policy, opts ...Option) *Campaign {
	c := &Campaign{
		exp:    exp,
		data:   data,
		policy: policy,
		log:    logger.Default,
	}
	for _, opt := range opts {
		opt(c)
	}
	if data.N() > 0 {
		c.state.Store(StatePrimed)
	} else {
		c.state.Store(StateUnprimed)
	}
	return c
}

// State returns the current lifecycle state
func (c *Campaign) State() State {
	return c.state.Load().(State)
}

// Data returns the campaign's observation log
func (c *Campaign) Data() *Dataset {
	return c.data
}

// Run drives the campaign to completion: prime (if configured and the
// dataset is empty), then loop policy step -> experiment evaluation ->
// append until the policy stops. Context cancellation is honored between
// iterations; the in-flight iteration always completes or fails whole, so
// no partial append is ever visible. A failed iteration leaves the dataset
// exactly as the previous iteration left it. Cancellation leaves the
// campaign in the stopped state, distinct from done, and a stopped campaign
// may be resumed by calling Run again with a fresh context.
func (c *Campaign) Run(ctx context.Context) error {
	switch c.State() {
	case StateRunning:
		return &StateError{State: StateRunning, Op: "run"}
	case StateDone:
		return &StateError{State: StateDone, Op: "run"}
	}

	if c.data.N() == 0 {
		if c.priming.N == 0 {
			return &StateError{State: StateUnprimed, Op: "run without priming config"}
		}
		if err := c.data.Prime(c.exp, c.priming.Design, c.priming.Seed, c.priming.N); err != nil {
			c.state.Store(StateFailed)
			return fmt.Errorf("priming campaign: %w", err)
		}
		c.log.Info("campaign primed",
			"design", c.priming.Design,
			"n", c.data.N(),
			"seed", c.priming.Seed,
		)
	}
	c.state.Store(StateRunning)

	for {
		if err := ctx.Err(); err != nil {
			// Graceful stop between iterations.
			c.state.Store(StateStopped)
			c.log.Info("campaign stopped", "observations", c.data.N())
			return err
		}

		start := time.Now()
		proposal, err := c.policy.Step(c.data)
		if err != nil {
			c.state.Store(StateFailed)
			return fmt.Errorf("policy step at iteration %d: %w", c.data.Iterations(), err)
		}
		if len(proposal.Candidates) == 0 {
			break
		}

		values, err := c.exp.Evaluate(proposal.Candidates)
		if err != nil {
			c.state.Store(StateFailed)
			return fmt.Errorf("evaluating experiment at iteration %d: %w", c.data.Iterations(), err)
		}

		record := proposal.Record
		record.Duration = time.Since(start)
		if err := c.data.Append(proposal.Candidates, values, record); err != nil {
			c.state.Store(StateFailed)
			return fmt.Errorf("appending iteration %d: %w", c.data.Iterations(), err)
		}

		c.log.Debug("iteration complete",
			"iteration", c.data.Iterations()-1,
			"rows", len(proposal.Candidates),
			"observations", c.data.N(),
			"acquisition", record.AcquisitionValue,
		)

		if !proposal.Continue {
			break
		}
	}

	c.state.Store(StateDone)
	c.log.Info("campaign complete", "observations", c.data.N(), "iterations", c.data.Iterations())
	return nil
}
