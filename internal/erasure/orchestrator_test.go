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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "subject-assets"

func newTestOrchestrator() (*Orchestrator, *fakeStore, *fakeObjectStore, *fakeIdentityProvider) {
	db := newFakeStore()
	objects := newFakeObjectStore()
	provider := newFakeIdentityProvider()
	return NewOrchestrator(db, objects, testBucket, provider), db, objects, provider
}

func seedSubject(db *fakeStore, objects *fakeObjectStore, userID string) {
	db.seed("predictions", userID, 4)
	db.seed("trainings", userID, 1)
	db.seed("push_tokens", userID, 2)
	db.seed("credits", userID, 1)
	db.seed("transactions", userID, 7)
	db.refs[userID] = []string{
		"s3://" + testBucket + "/" + userID + "/outputs/result.png",
		userID + "/inputs/photo.jpg",
	}
	for _, key := range []string{
		userID + "/inputs/photo.jpg",
		userID + "/outputs/result.png",
		userID + "/weights.safetensors",
	} {
		objects.objects[key] = true
	}
}

func TestEraseFullSuccess(t *testing.T) {
	orch, db, objects, provider := newTestOrchestrator()
	seedSubject(db, objects, "user-1")

	report := orch.Erase(context.Background(), "user-1")

	require.Len(t, report.Steps, len(stepCatalogue))
	assert.True(t, report.Authenticated)
	assert.True(t, report.AllSucceeded())
	assert.NotEmpty(t, report.RequestID)
	assert.Equal(t, "user-1", report.SubjectID)

	step, ok := report.Step(StepPredictions)
	require.True(t, ok)
	assert.Equal(t, "deleted 4 rows", step.Detail)

	// Everything under the subject namespace is gone.
	keys, _, err := objects.ListKeys(context.Background(), testBucket, "user-1/", "")
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.Equal(t, []string{"user-1"}, provider.deleted)
}

func TestEraseReportOrderIsStable(t *testing.T) {
	orch, db, objects, _ := newTestOrchestrator()
	seedSubject(db, objects, "user-1")

	report := orch.Erase(context.Background(), "user-1")
	for i, s := range report.Steps {
		assert.Equal(t, stepCatalogue[i], s.Name)
	}
	assert.Equal(t, StepIdentity, report.Steps[len(report.Steps)-1].Name)
}

func TestEraseIsIdempotent(t *testing.T) {
	orch, db, objects, _ := newTestOrchestrator()
	seedSubject(db, objects, "user-1")

	first := orch.Erase(context.Background(), "user-1")
	assert.True(t, first.AllSucceeded())

	// The second run finds nothing, and nothing fails.
	second := orch.Erase(context.Background(), "user-1")
	assert.True(t, second.AllSucceeded())
	for _, name := range []string{StepPredictions, StepTrainings, StepPushTokens, StepCredits, StepTransactions, StepTrackedArtifacts, StepObjectNamespace} {
		step, ok := second.Step(name)
		require.True(t, ok)
		assert.Equal(t, nothingToDelete, step.Detail, "step %s", name)
	}
}

func TestEraseSingleTableFailureIsIsolated(t *testing.T) {
	orch, db, objects, provider := newTestOrchestrator()
	seedSubject(db, objects, "user-1")
	db.failTables["credits"] = true

	report := orch.Erase(context.Background(), "user-1")

	step, ok := report.Step(StepCredits)
	require.True(t, ok)
	assert.Equal(t, StepFailed, step.Status)
	assert.Contains(t, step.Detail, "connection refused")

	// Every other step still ran and succeeded.
	for _, s := range report.Steps {
		if s.Name == StepCredits {
			continue
		}
		assert.Equal(t, StepSuccess, s.Status, "step %s", s.Name)
	}
	assert.False(t, report.AllSucceeded())
	assert.Equal(t, []string{"user-1"}, provider.deleted, "identity deletion must still be attempted")
}

func TestEraseArtifactRefCollectionFailure(t *testing.T) {
	orch, db, objects, _ := newTestOrchestrator()
	seedSubject(db, objects, "user-1")
	db.refsErr = errors.New("query timeout")

	report := orch.Erase(context.Background(), "user-1")

	step, ok := report.Step(StepTrackedArtifacts)
	require.True(t, ok)
	assert.Equal(t, StepFailed, step.Status)
	assert.Contains(t, step.Detail, "collecting artifact references")

	// The prefix sweep is independent and still clears the namespace.
	sweep, ok := report.Step(StepObjectNamespace)
	require.True(t, ok)
	assert.Equal(t, StepSuccess, sweep.Status)
}

func TestEraseObjectListingFailure(t *testing.T) {
	orch, db, objects, provider := newTestOrchestrator()
	db.seed("predictions", "user-1", 1)
	objects.objects["user-1/a"] = true
	objects.listErr = errors.New("throttled")

	report := orch.Erase(context.Background(), "user-1")

	step, ok := report.Step(StepObjectNamespace)
	require.True(t, ok)
	assert.Equal(t, StepFailed, step.Status)

	pred, ok := report.Step(StepPredictions)
	require.True(t, ok)
	assert.Equal(t, StepSuccess, pred.Status)
	assert.Equal(t, []string{"user-1"}, provider.deleted)
}

func TestEraseIdentityDeletionFailure(t *testing.T) {
	orch, db, objects, provider := newTestOrchestrator()
	seedSubject(db, objects, "user-1")
	provider.deleteErr = errors.New("admin API unavailable")

	report := orch.Erase(context.Background(), "user-1")

	step, ok := report.Step(StepIdentity)
	require.True(t, ok)
	assert.Equal(t, StepFailed, step.Status)
	assert.False(t, report.AllSucceeded())

	// Relational and object steps are unaffected.
	pred, _ := report.Step(StepPredictions)
	assert.Equal(t, StepSuccess, pred.Status)
}

func TestEraseTrackedArtifactOutsideNamespace(t *testing.T) {
	orch, db, objects, _ := newTestOrchestrator()
	db.seed("predictions", "user-1", 1)
	// An asset recorded on a row but written outside the subject's prefix.
	db.refs["user-1"] = []string{"shared/exports/user-1-bundle.zip"}
	objects.objects["shared/exports/user-1-bundle.zip"] = true

	report := orch.Erase(context.Background(), "user-1")

	step, ok := report.Step(StepTrackedArtifacts)
	require.True(t, ok)
	assert.Equal(t, StepSuccess, step.Status)
	assert.Equal(t, "deleted 1 tracked artifacts", step.Detail)
	assert.Empty(t, objects.keysWithPrefix("shared/exports/"))
}
