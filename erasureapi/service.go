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

// Package erasureapi exposes the right-to-erasure pipeline over HTTP.
package erasureapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cardinalhq/scrubber/internal/cloudstorage"
	"github.com/cardinalhq/scrubber/internal/erasure"
)

// Config holds the HTTP listener configuration.
type Config struct {
	Port int `mapstructure:"port"`
}

func DefaultConfig() Config {
	return Config{Port: 8080}
}

// Service handles incoming erasure requests. Every request is authorized
// against the caller's own verified identity before any deletion runs.
type Service struct {
	port         int
	gate         *erasure.AuthGate
	orchestrator *erasure.Orchestrator
}

func NewService(cfg Config, db erasure.RelationalStore, objects cloudstorage.Client, bucket string, provider erasure.IdentityProvider) (*Service, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultConfig().Port
	}

	return &Service{
		port:         port,
		gate:         erasure.NewAuthGate(provider),
		orchestrator: erasure.NewOrchestrator(db, objects, bucket, provider),
	}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/erase", s.handleErase)
	mux.HandleFunc("GET /healthz", s.healthCheck)

	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting erasure API service", "addr", addr)

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (s *Service) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
