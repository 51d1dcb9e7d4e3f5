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

	"github.com/cardinalhq/scrubber/internal/cloudstorage"
)

const nothingToDelete = "nothing to delete"

// objectPrefixEraser deletes every object stored under a subject's
// namespace prefix in the object store.
type objectPrefixEraser struct {
	objects cloudstorage.Client
	bucket  string
}

// erase lists the full key set under "<subjectID>/" before issuing any
// deletes. If listing fails partway the key set may be incomplete, so no
// deletion is attempted at all; the caller records the step as failed and a
// later run retries from scratch.
func (e *objectPrefixEraser) erase(ctx context.Context, subjectID string) (string, error) {
	prefix := subjectID + "/"

	var keys []string
	var token string
	for {
		page, next, err := e.objects.ListKeys(ctx, e.bucket, prefix, token)
		if err != nil {
			return "", fmt.Errorf("listing objects under %q: %w", prefix, err)
		}
		keys = append(keys, page...)
		if next == "" {
			break
		}
		token = next
	}

	if len(keys) == 0 {
		return nothingToDelete, nil
	}

	failed, err := e.objects.DeleteKeys(ctx, e.bucket, keys)
	if err != nil {
		return "", fmt.Errorf("deleting objects under %q: %w", prefix, err)
	}
	if len(failed) > 0 {
		return "", fmt.Errorf("%d of %d objects under %q failed to delete", len(failed), len(keys), prefix)
	}

	return fmt.Sprintf("deleted %d objects", len(keys)), nil
}
