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
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/scrubber/internal/cloudstorage"
)

// Step names, in report order.
const (
	StepPredictions      = "predictions"
	StepTrainings        = "trainings"
	StepPushTokens       = "push_tokens"
	StepCredits          = "credits"
	StepTransactions     = "transactions"
	StepTrackedArtifacts = "tracked_artifacts"
	StepObjectNamespace  = "object_namespace"
	StepIdentity         = "identity"
)

var stepCatalogue = []string{
	StepPredictions,
	StepTrainings,
	StepPushTokens,
	StepCredits,
	StepTransactions,
	StepTrackedArtifacts,
	StepObjectNamespace,
	StepIdentity,
}

// RelationalStore defines the user database operations needed by the
// orchestrator. Deletes are simple equality filters on the subject id and
// must report zero rows affected, not an error, when nothing matches.
type RelationalStore interface {
	DeletePredictionsByUserID(ctx context.Context, userID string) (int64, error)
	DeleteTrainingsByUserID(ctx context.Context, userID string) (int64, error)
	DeletePushTokensByUserID(ctx context.Context, userID string) (int64, error)
	DeleteCreditsByUserID(ctx context.Context, userID string) (int64, error)
	DeleteTransactionsByUserID(ctx context.Context, userID string) (int64, error)
	ListArtifactRefsByUserID(ctx context.Context, userID string) ([]string, error)
}

// Orchestrator drives the fixed catalogue of deletion steps for one subject.
// Every step is best-effort: a failing backend is recorded in the report and
// the remaining steps still run. The identity-provider deletion always runs
// last so the subject's authenticated context is not disturbed mid-pipeline.
type Orchestrator struct {
	db       RelationalStore
	objects  cloudstorage.Client
	bucket   string
	provider IdentityProvider
}

func NewOrchestrator(db RelationalStore, objects cloudstorage.Client, bucket string, provider IdentityProvider) *Orchestrator {
	return &Orchestrator{
		db:       db,
		objects:  objects,
		bucket:   bucket,
		provider: provider,
	}
}

// Erase executes the full deletion catalogue for the subject and returns the
// report. It never returns an error: per-step failures are contained by
// runStep, and a partially completed erasure is an accepted outcome.
func (o *Orchestrator) Erase(ctx context.Context, subjectID string) *Report {
	report := newReport(subjectID, stepCatalogue)
	slog.Info("Starting erasure pipeline",
		slog.String("requestID", report.RequestID))

	// Artifact references live on rows the relational steps are about to
	// delete, so they must be collected before anything else runs.
	refs, refErr := o.db.ListArtifactRefsByUserID(ctx, subjectID)

	parallel := map[string]stepFunc{
		StepPredictions:      deleteRows(o.db.DeletePredictionsByUserID, subjectID),
		StepTrainings:        deleteRows(o.db.DeleteTrainingsByUserID, subjectID),
		StepPushTokens:       deleteRows(o.db.DeletePushTokensByUserID, subjectID),
		StepCredits:          deleteRows(o.db.DeleteCreditsByUserID, subjectID),
		StepTransactions:     deleteRows(o.db.DeleteTransactionsByUserID, subjectID),
		StepTrackedArtifacts: o.deleteTrackedArtifacts(refs, refErr),
		StepObjectNamespace: func(ctx context.Context) (string, error) {
			sweeper := &objectPrefixEraser{objects: o.objects, bucket: o.bucket}
			return sweeper.erase(ctx, subjectID)
		},
	}

	// Steps target disjoint resources, so everything except the identity
	// deletion can run concurrently. Each goroutine owns one slot of the
	// report and runStep never returns an error, so the group exists only
	// to wait.
	g := errgroup.Group{}
	for i := range report.Steps {
		fn, ok := parallel[report.Steps[i].Name]
		if !ok {
			continue
		}
		g.Go(func() error {
			report.Steps[i] = runStep(ctx, report.Steps[i].Name, fn)
			return nil
		})
	}
	_ = g.Wait()

	// Identity deletion is irreversible and must come last.
	last := len(report.Steps) - 1
	report.Steps[last] = runStep(ctx, StepIdentity, func(ctx context.Context) (string, error) {
		if err := o.provider.DeleteIdentity(ctx, subjectID); err != nil {
			return "", err
		}
		return "", nil
	})

	slog.Info("Erasure pipeline finished",
		slog.String("requestID", report.RequestID),
		slog.Bool("allSucceeded", report.AllSucceeded()))
	return report
}

// deleteRows adapts a per-table delete into a stepFunc. Zero rows affected
// is annotated, not failed, so repeat runs report cleanly.
func deleteRows(del func(context.Context, string) (int64, error), subjectID string) stepFunc {
	return func(ctx context.Context) (string, error) {
		n, err := del(ctx, subjectID)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return nothingToDelete, nil
		}
		return fmt.Sprintf("deleted %d rows", n), nil
	}
}

// deleteTrackedArtifacts removes objects explicitly recorded on relational
// rows, independent of the namespace convention the prefix sweep relies on.
func (o *Orchestrator) deleteTrackedArtifacts(refs []string, refErr error) stepFunc {
	return func(ctx context.Context) (string, error) {
		if refErr != nil {
			return "", fmt.Errorf("collecting artifact references: %w", refErr)
		}
		if len(refs) == 0 {
			return nothingToDelete, nil
		}

		var errs *multierror.Error
		deleted := 0
		for _, ref := range refs {
			key, ok := objectKeyFromRef(ref, o.bucket)
			if !ok {
				slog.Warn("Skipping unresolvable artifact reference", slog.String("ref", ref))
				continue
			}
			if err := o.objects.DeleteKey(ctx, o.bucket, key); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("delete %s: %w", key, err))
				continue
			}
			deleted++
		}
		if err := errs.ErrorOrNil(); err != nil {
			return "", err
		}
		if deleted == 0 {
			return nothingToDelete, nil
		}
		return fmt.Sprintf("deleted %d tracked artifacts", deleted), nil
	}
}
