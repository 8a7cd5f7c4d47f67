// Package runner executes an ordered pipeline of deployment steps. Each step
// carries an explicit failure policy instead of relying on shell-style
// fail-fast or error suppression: mandatory steps abort the run, optional
// steps log a warning and continue, and gated steps are skipped when their
// precondition is unmet.
package runner

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// Status is the lifecycle state of a single step.
type Status string

const (
	StatusPending    Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
	StatusFailed     Status = "FAILED"
	StatusSkipped    Status = "SKIPPED"
)

// Policy decides what a step failure does to the rest of the run.
type Policy int

const (
	// Fatal aborts the run on error.
	Fatal Policy = iota
	// WarnContinue logs the error and proceeds to the next step.
	WarnContinue
)

// Step is one unit of the deployment pipeline, operating on shared state T.
type Step[T any] struct {
	Name   string
	Policy Policy

	// Ready gates the step; when it returns false the step is skipped with
	// the given reason. A nil Ready means the step always runs.
	Ready func(*T) (ok bool, reason string)

	Run func(ctx context.Context, state *T) error
}

// Result records the outcome of one step.
type Result struct {
	Name   string
	Status Status
	Err    error
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	failMark = color.New(color.FgRed).Sprint("✗")
	skipMark = color.New(color.FgYellow).Sprint("-")
)

// Run executes steps in order against state. It returns the per-step results
// and the first fatal error, if any. Results always cover every step, with
// steps after a fatal failure left in StatusPending.
func Run[T any](ctx context.Context, state *T, steps []Step[T]) ([]Result, error) {
	logger := zerolog.Ctx(ctx)

	results := make([]Result, len(steps))
	for i, step := range steps {
		results[i] = Result{Name: step.Name, Status: StatusPending}
	}

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if step.Ready != nil {
			if ok, reason := step.Ready(state); !ok {
				results[i].Status = StatusSkipped
				logger.Info().Str("step", step.Name).Str("reason", reason).Msg("Step skipped")
				fmt.Printf("%s %s (skipped: %s)\n", skipMark, step.Name, reason)
				continue
			}
		}

		results[i].Status = StatusInProgress
		logger.Info().Str("step", step.Name).Msg("Step started")

		err := step.Run(ctx, state)
		if err == nil {
			results[i].Status = StatusComplete
			fmt.Printf("%s %s\n", okMark, step.Name)
			continue
		}

		results[i].Status = StatusFailed
		results[i].Err = err
		fmt.Printf("%s %s failed: %v\n", failMark, step.Name, err)

		if step.Policy == Fatal {
			logger.Error().Err(err).Str("step", step.Name).Msg("Fatal step failed, aborting run")
			return results, fmt.Errorf("step %s failed: %w", step.Name, err)
		}
		logger.Warn().Err(err).Str("step", step.Name).Msg("Optional step failed, continuing")
	}

	return results, nil
}
