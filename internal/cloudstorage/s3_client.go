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

	"github.com/cardinalhq/scrubber/internal/awsclient"
)

// s3Client wraps the S3 implementation
type s3Client struct {
	awsS3Client *awsclient.S3Client
}

var _ Client = (*s3Client)(nil)

// NewS3Client creates a storage Client backed by an S3-compatible store.
func NewS3Client(awsS3Client *awsclient.S3Client) Client {
	return &s3Client{awsS3Client: awsS3Client}
}

func (c *s3Client) ListKeys(ctx context.Context, bucket, prefix, continuationToken string) ([]string, string, error) {
	return listS3Keys(ctx, c.awsS3Client, bucket, prefix, continuationToken)
}

func (c *s3Client) DeleteKeys(ctx context.Context, bucket string, keys []string) ([]string, error) {
	return deleteS3Objects(ctx, c.awsS3Client, bucket, keys)
}

func (c *s3Client) DeleteKey(ctx context.Context, bucket, key string) error {
	return deleteS3Object(ctx, c.awsS3Client, bucket, key)
}
