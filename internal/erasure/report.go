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
	"github.com/google/uuid"
)

// Report is the per-request erasure outcome. Steps appear in catalogue
// order regardless of execution order, so repeated runs produce comparable
// reports. The Authenticated flag is carried separately from step outcomes:
// a fully failed pipeline on an authorized request is still a 200-level
// report.
type Report struct {
	RequestID     string         `json:"request_id"`
	SubjectID     string         `json:"user_id"`
	Authenticated bool           `json:"authenticated"`
	Steps         []DeletionStep `json:"steps"`
}

func newReport(subjectID string, stepNames []string) *Report {
	steps := make([]DeletionStep, len(stepNames))
	for i, name := range stepNames {
		steps[i] = DeletionStep{Name: name, Status: StepPending}
	}
	return &Report{
		RequestID:     uuid.NewString(),
		SubjectID:     subjectID,
		Authenticated: true,
		Steps:         steps,
	}
}

// Step returns the recorded step with the given name.
func (r *Report) Step(name string) (DeletionStep, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return DeletionStep{}, false
}

// AllSucceeded reports whether every step completed successfully. Callers
// use this to decide whether a follow-up erasure run is needed; the HTTP
// status does not depend on it.
func (r *Report) AllSucceeded() bool {
	for _, s := range r.Steps {
		if s.Status != StepSuccess {
			return false
		}
	}
	return true
}
