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

package cloudstorage

import (
	"context"
)

// Client provides the object storage operations needed to erase a subject's
// assets. Implementations must treat deletion of an absent key as success so
// that repeated erasure runs stay idempotent.
type Client interface {
	// ListKeys returns one page of keys under prefix. A non-empty nextToken
	// means more pages remain and must be passed to the following call.
	ListKeys(ctx context.Context, bucket, prefix, continuationToken string) (keys []string, nextToken string, err error)

	// DeleteKeys removes the given keys in batches and returns the keys that
	// could not be deleted.
	DeleteKeys(ctx context.Context, bucket string, keys []string) (failed []string, err error)

	// DeleteKey removes a single object.
	DeleteKey(ctx context.Context, bucket, key string) error
}
