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

package migrations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLatestMigrationVersion(t *testing.T) {
	got, err := extractLatestMigrationVersion(migrationFiles)
	require.NoError(t, err)
	// The exact version depends on the current migrations, but it should be > 0
	assert.NotZero(t, got)
	t.Logf("Latest userdb migration version: %d", got)
}

func TestGetMigrationCheckConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"USERDB_MIGRATION_CHECK_ENABLED",
		"MIGRATION_CHECK_TIMEOUT",
		"MIGRATION_CHECK_RETRY_INTERVAL",
		"MIGRATION_CHECK_ALLOW_DIRTY",
	} {
		t.Setenv(key, "")
	}

	config := getMigrationCheckConfig()
	assert.True(t, config.Enabled)
	assert.Equal(t, 60*time.Second, config.Timeout)
	assert.Equal(t, 5*time.Second, config.RetryInterval)
	assert.False(t, config.AllowDirty)
}

func TestGetMigrationCheckConfigFromEnv(t *testing.T) {
	t.Setenv("USERDB_MIGRATION_CHECK_ENABLED", "false")
	t.Setenv("MIGRATION_CHECK_TIMEOUT", "30s")
	t.Setenv("MIGRATION_CHECK_RETRY_INTERVAL", "2s")
	t.Setenv("MIGRATION_CHECK_ALLOW_DIRTY", "true")

	config := getMigrationCheckConfig()
	assert.False(t, config.Enabled)
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Equal(t, 2*time.Second, config.RetryInterval)
	assert.True(t, config.AllowDirty)
}
