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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeyFromRef(t *testing.T) {
	const bucket = "subject-assets"

	tests := []struct {
		name     string
		ref      string
		expected string
		ok       bool
	}{
		{
			name:     "raw key",
			ref:      "user-1/outputs/result.png",
			expected: "user-1/outputs/result.png",
			ok:       true,
		},
		{
			name:     "raw key with leading slash",
			ref:      "/user-1/outputs/result.png",
			expected: "user-1/outputs/result.png",
			ok:       true,
		},
		{
			name:     "s3 URL in our bucket",
			ref:      "s3://subject-assets/user-1/inputs/photo.jpg",
			expected: "user-1/inputs/photo.jpg",
			ok:       true,
		},
		{
			name: "s3 URL in a different bucket",
			ref:  "s3://other-bucket/user-1/inputs/photo.jpg",
			ok:   false,
		},
		{
			name:     "virtual-host https URL",
			ref:      "https://subject-assets.s3.us-east-2.amazonaws.com/user-1/weights.safetensors",
			expected: "user-1/weights.safetensors",
			ok:       true,
		},
		{
			name:     "path-style https URL",
			ref:      "https://minio.internal:9000/subject-assets/user-1/training.zip",
			expected: "user-1/training.zip",
			ok:       true,
		},
		{
			name: "path-style https URL for a different bucket",
			ref:  "https://minio.internal:9000/other-bucket/user-1/training.zip",
			ok:   false,
		},
		{
			name: "empty reference",
			ref:  "",
			ok:   false,
		},
		{
			name: "unsupported scheme",
			ref:  "gs://subject-assets/user-1/file",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := objectKeyFromRef(tt.ref, bucket)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, key)
			}
		})
	}
}
