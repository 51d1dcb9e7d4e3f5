// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package erasure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var stepCounter metric.Int64Counter

func init() {
	meter := otel.Meter("github.com/cardinalhq/scrubber/internal/erasure")

	var err error
	stepCounter, err = meter.Int64Counter(
		"scrubber.erasure.steps",
		metric.WithDescription("Number of erasure steps executed, by step name and outcome"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create erasure.steps counter: %w", err))
	}
}

type StepStatus int

const (
	StepPending StepStatus = iota
	StepSuccess
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepSuccess:
		return "success"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s StepStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *StepStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "pending":
		*s = StepPending
	case "success":
		*s = StepSuccess
	case "failed":
		*s = StepFailed
	default:
		return fmt.Errorf("unknown step status %q", name)
	}
	return nil
}

// DeletionStep records the outcome of one deletion action. A step is created
// fresh per request and transitions from pending to success or failed exactly
// once.
type DeletionStep struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// stepFunc is one deletion action. The returned detail annotates a
// successful step (for example "nothing to delete").
type stepFunc func(ctx context.Context) (detail string, err error)

// runStep executes fn and converts any error or panic into a recorded step
// status. Failures are logged here and never propagate to the orchestrator;
// this boundary is what keeps a single backend failure from aborting the
// remaining steps.
func runStep(ctx context.Context, name string, fn stepFunc) (step DeletionStep) {
	step = DeletionStep{Name: name, Status: StepPending}

	defer func() {
		if r := recover(); r != nil {
			step.Status = StepFailed
			step.Detail = fmt.Sprintf("panic: %v", r)
			slog.Error("Erasure step panicked", slog.String("step", name), slog.Any("panic", r))
			countStep(ctx, name, StepFailed)
		}
	}()

	detail, err := fn(ctx)
	if err != nil {
		step.Status = StepFailed
		step.Detail = err.Error()
		slog.Error("Erasure step failed", slog.String("step", name), slog.Any("error", err))
		countStep(ctx, name, StepFailed)
		return step
	}

	step.Status = StepSuccess
	step.Detail = detail
	slog.Debug("Erasure step completed", slog.String("step", name), slog.String("detail", detail))
	countStep(ctx, name, StepSuccess)
	return step
}

func countStep(ctx context.Context, name string, status StepStatus) {
	stepCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", name),
		attribute.String("status", status.String()),
	))
}
