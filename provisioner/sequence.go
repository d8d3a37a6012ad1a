package provisioner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/kongcloak/metrics"
)

// Step is one unit of provisioning work.
//
// Run is executed first. When it succeeds, Steps are run as a nested
// sequence and the step fails if that sequence aborts.
type Step struct {
	Name string
	Run  func(ctx context.Context) error

	// Steps is an optional nested sequence executed after Run.
	Steps []Step

	// ContinueOnError records a failure of this step and lets the sequence go on.
	ContinueOnError bool
}

// StepStatus is the final state of a step.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepResult records the outcome of a step and its nested steps.
type StepResult struct {
	Name     string
	Status   StepStatus
	Err      error
	Duration time.Duration
	Steps    []StepResult
}

func (r StepResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Name     string       `json:"name"`
		Status   StepStatus   `json:"status"`
		Error    string       `json:"error,omitempty"`
		Duration string       `json:"duration"`
		Steps    []StepResult `json:"steps,omitempty"`
	}{
		Name:     r.Name,
		Status:   r.Status,
		Duration: r.Duration.String(),
		Steps:    r.Steps,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// StepError reports the step that aborted a sequence.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// RunSequence executes steps strictly one at a time in order. A step starts
// only after the previous one returned.
//
// The first failing step aborts the sequence unless it is marked
// ContinueOnError; the remaining steps are reported as skipped. A cancelled
// context aborts the sequence before the next step starts.
//
// Returns:
//   - One result per step, in order
//   - *StepError naming the aborting step, nil if the sequence ran to the end
func RunSequence(ctx context.Context, log *slog.Logger, steps []Step) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			results = append(results, skipped(steps[i:])...)
			return results, &StepError{Step: step.Name, Err: err}
		}

		result := runStep(ctx, log, step)
		results = append(results, result)
		metrics.ProvisionSteps.WithLabelValues(stepLabel(step.Name), string(result.Status)).Inc()

		if result.Status != StepFailed {
			continue
		}

		if step.ContinueOnError {
			log.Warn("Step failed, continuing",
				slog.String("step", step.Name),
				"err", result.Err)
			continue
		}

		log.Error("Step failed, aborting sequence",
			slog.String("step", step.Name),
			slog.Int("skipped", len(steps)-i-1),
			"err", result.Err)
		results = append(results, skipped(steps[i+1:])...)
		return results, &StepError{Step: step.Name, Err: result.Err}
	}

	return results, nil
}

// StartSequence runs steps like RunSequence without blocking the caller.
// done is invoked exactly once after the last step, or before StartSequence
// returns when steps is empty.
func StartSequence(ctx context.Context, log *slog.Logger, steps []Step, done func([]StepResult, error)) {
	if len(steps) == 0 {
		done([]StepResult{}, nil)
		return
	}

	go func() {
		results, err := RunSequence(ctx, log, steps)
		done(results, err)
	}()
}

// Each builds one step per item, named by name and running task on the item.
func Each[T any](items []T, name func(T) string, task func(context.Context, T) error) []Step {
	steps := make([]Step, 0, len(items))
	for _, item := range items {
		steps = append(steps, Step{
			Name: name(item),
			Run: func(ctx context.Context) error {
				return task(ctx, item)
			},
		})
	}
	return steps
}

// Failed returns every failed step of results, nested steps included, depth first.
func Failed(results []StepResult) []StepResult {
	var failed []StepResult
	for _, r := range results {
		if r.Status == StepFailed {
			failed = append(failed, r)
		}
		failed = append(failed, Failed(r.Steps)...)
	}
	return failed
}

func runStep(ctx context.Context, log *slog.Logger, step Step) StepResult {
	start := time.Now()
	log.Debug("Starting step", slog.String("step", step.Name))

	var err error
	var nested []StepResult
	if step.Run != nil {
		err = step.Run(ctx)
	}
	if err == nil && len(step.Steps) > 0 {
		nested, err = RunSequence(ctx, log, step.Steps)
	} else if err != nil && len(step.Steps) > 0 {
		nested = skipped(step.Steps)
	}

	result := StepResult{
		Name:     step.Name,
		Status:   StepCompleted,
		Err:      err,
		Duration: time.Since(start),
		Steps:    nested,
	}
	if err != nil {
		result.Status = StepFailed
		return result
	}

	log.Info("Step completed",
		slog.String("step", step.Name),
		slog.Duration("duration", result.Duration))
	return result
}

func skipped(steps []Step) []StepResult {
	results := make([]StepResult, 0, len(steps))
	for _, step := range steps {
		results = append(results, StepResult{Name: step.Name, Status: StepSkipped})
	}
	return results
}

// stepLabel keeps metric cardinality bounded: per-item steps are named "<kind> <item>".
func stepLabel(name string) string {
	kind, _, _ := strings.Cut(name, " ")
	return kind
}
