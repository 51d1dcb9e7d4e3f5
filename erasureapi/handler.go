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

package erasureapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/scrubber/internal/erasure"
)

var (
	meter = otel.Meter("github.com/cardinalhq/scrubber/erasureapi")

	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
)

func init() {
	var err error
	requestCounter, err = meter.Int64Counter(
		"scrubber.erasure.requests",
		metric.WithDescription("Erasure requests by HTTP status"),
	)
	if err != nil {
		panic("failed to create request counter: " + err.Error())
	}
	requestDuration, err = meter.Float64Histogram(
		"scrubber.erasure.duration",
		metric.WithDescription("End-to-end erasure request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic("failed to create duration histogram: " + err.Error())
	}
}

type eraseRequest struct {
	UserID string `json:"user_id"`
}

// handleErase runs the deletion pipeline for one subject. The method check
// comes before authorization so probes with the wrong verb never reach the
// identity provider.
func (s *Service) handleErase(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		s.reply(w, r, http.StatusMethodNotAllowed, "method not allowed", start)
		return
	}

	var req eraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode erasure request", slog.Any("error", err))
		s.reply(w, r, http.StatusInternalServerError, "could not process request", start)
		return
	}
	if req.UserID == "" {
		slog.Error("Erasure request missing user_id")
		s.reply(w, r, http.StatusInternalServerError, "could not process request", start)
		return
	}

	ident, err := s.gate.Authorize(r.Context(), r.Header.Get("Authorization"), req.UserID)
	switch {
	case errors.Is(err, erasure.ErrUnauthenticated):
		s.reply(w, r, http.StatusUnauthorized, "unauthenticated", start)
		return
	case errors.Is(err, erasure.ErrForbidden):
		s.reply(w, r, http.StatusForbidden, "forbidden", start)
		return
	case err != nil:
		slog.Error("Authorization failed unexpectedly", slog.Any("error", err))
		s.reply(w, r, http.StatusInternalServerError, "could not process request", start)
		return
	}

	// A partially failed pipeline is still a 200: the report carries the
	// per-step outcomes and the caller retries by submitting again.
	report := s.orchestrator.Erase(r.Context(), ident.ID)

	requestCounter.Add(r.Context(), 1, metric.WithAttributes(
		attribute.Int("status", http.StatusOK),
		attribute.Bool("allSucceeded", report.AllSucceeded()),
	))
	requestDuration.Record(r.Context(), time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(report)
}

func (s *Service) reply(w http.ResponseWriter, r *http.Request, status int, message string, start time.Time) {
	requestCounter.Add(r.Context(), 1, metric.WithAttributes(
		attribute.Int("status", status),
	))
	requestDuration.Record(r.Context(), time.Since(start).Seconds())
	http.Error(w, message, status)
}
