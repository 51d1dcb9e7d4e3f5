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

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cardinalhq/scrubber/config"
	"github.com/cardinalhq/scrubber/erasureapi"
	"github.com/cardinalhq/scrubber/internal/awsclient"
	"github.com/cardinalhq/scrubber/internal/cloudstorage"
	"github.com/cardinalhq/scrubber/internal/healthcheck"
	"github.com/cardinalhq/scrubber/internal/idp"
	"github.com/cardinalhq/scrubber/userdb"
)

func init() {
	cmd := &cobra.Command{
		Use:   "erasure-api",
		Short: "start the erasure API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			servicename := "erasure-api"
			addlAttrs := attribute.NewSet()
			ctx, doneFx, err := setupTelemetry(servicename, &addlAttrs)
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}

			defer func() {
				if err := doneFx(); err != nil {
					slog.Error("Error shutting down telemetry", slog.Any("error", err))
				}
			}()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			// Start health check server
			healthConfig := healthcheck.GetConfigFromEnv()
			healthServer := healthcheck.NewServer(healthConfig)

			go func() {
				if err := healthServer.Start(ctx); err != nil {
					slog.Error("Health check server stopped", slog.Any("error", err))
				}
			}()

			// Health is not dependent on backend readiness
			healthServer.SetStatus(healthcheck.StatusHealthy)

			udb, err := userdb.UserDBStore(ctx)
			if err != nil {
				slog.Error("Failed to connect to user database", slog.Any("error", err))
				return fmt.Errorf("failed to connect to user database: %w", err)
			}

			awsManager, err := awsclient.NewManager(ctx)
			if err != nil {
				slog.Error("Failed to create AWS client manager", slog.Any("error", err))
				return fmt.Errorf("failed to create AWS client manager: %w", err)
			}

			s3client, err := awsManager.GetS3(ctx, cfg.Storage.S3Options()...)
			if err != nil {
				slog.Error("Failed to create S3 client", slog.Any("error", err))
				return fmt.Errorf("failed to create S3 client: %w", err)
			}
			objects := cloudstorage.NewS3Client(s3client)

			provider, err := idp.NewClient(cfg.Identity)
			if err != nil {
				slog.Error("Failed to create identity provider client", slog.Any("error", err))
				return fmt.Errorf("failed to create identity provider client: %w", err)
			}

			service, err := erasureapi.NewService(cfg.API, udb, objects, cfg.Storage.Bucket, provider)
			if err != nil {
				slog.Error("Failed to create erasure API service", slog.Any("error", err))
				return fmt.Errorf("failed to create erasure API service: %w", err)
			}

			healthServer.SetReady(true)

			return service.Run(ctx)
		},
	}

	rootCmd.AddCommand(cmd)
}
