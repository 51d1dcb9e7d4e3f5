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
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardinalhq/scrubber/internal/awsclient"
)

var (
	listCount    metric.Int64Counter
	listErrors   metric.Int64Counter
	deleteCount  metric.Int64Counter
	deleteErrors metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/scrubber/internal/cloudstorage")

	var err error
	listCount, err = meter.Int64Counter(
		"scrubber.s3.list.count",
		metric.WithDescription("Number of S3 list requests"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create list.count counter: %w", err))
	}

	listErrors, err = meter.Int64Counter(
		"scrubber.s3.list.errors",
		metric.WithDescription("Number of S3 list errors"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create list.errors counter: %w", err))
	}

	deleteCount, err = meter.Int64Counter(
		"scrubber.s3.delete.count",
		metric.WithDescription("Number of S3 objects deleted"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create delete.count counter: %w", err))
	}

	deleteErrors, err = meter.Int64Counter(
		"scrubber.s3.delete.errors",
		metric.WithDescription("Number of S3 objects that failed to delete"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create delete.errors counter: %w", err))
	}
}

func listS3Keys(
	ctx context.Context,
	s3client *awsclient.S3Client,
	bucketID, prefix, continuationToken string,
) ([]string, string, error) {
	ctx, span := s3client.Tracer.Start(ctx, "cloudstorage.listS3Keys",
		trace.WithAttributes(
			attribute.String("bucketID", bucketID),
			attribute.String("prefix", prefix),
		),
	)
	defer span.End()

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucketID),
		Prefix: aws.String(prefix),
	}
	if continuationToken != "" {
		input.ContinuationToken = aws.String(continuationToken)
	}

	result, err := s3client.Client.ListObjectsV2(ctx, input)
	if err != nil {
		listErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("bucket", bucketID),
		))
		return nil, "", fmt.Errorf("list %s/%s: %w", bucketID, prefix, err)
	}

	listCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("bucket", bucketID),
	))

	keys := make([]string, 0, len(result.Contents))
	for _, obj := range result.Contents {
		if obj.Key != nil {
			keys = append(keys, *obj.Key)
		}
	}

	var next string
	if aws.ToBool(result.IsTruncated) && result.NextContinuationToken != nil {
		next = *result.NextContinuationToken
	}

	return keys, next, nil
}

func deleteS3Object(ctx context.Context, s3client *awsclient.S3Client, bucketID, objectID string) error {
	var span trace.Span
	ctx, span = s3client.Tracer.Start(ctx, "cloudstorage.deleteS3Object",
		trace.WithAttributes(
			attribute.String("bucketID", bucketID),
		),
	)
	defer span.End()

	// S3 delete on an absent key succeeds, which keeps repeat erasure runs safe.
	_, err := s3client.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketID),
		Key:    aws.String(objectID),
	})
	if err != nil {
		deleteErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("bucket", bucketID),
		))
		return fmt.Errorf("failed to delete S3 object: %w", err)
	}
	deleteCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("bucket", bucketID),
	))
	return nil
}

func deleteS3Objects(ctx context.Context, s3client *awsclient.S3Client, bucketID string, objectKeys []string) ([]string, error) {
	if len(objectKeys) == 0 {
		return nil, nil
	}

	var span trace.Span
	ctx, span = s3client.Tracer.Start(ctx, "cloudstorage.deleteS3Objects",
		trace.WithAttributes(
			attribute.String("bucketID", bucketID),
			attribute.Int("object_count", len(objectKeys)),
		),
	)
	defer span.End()

	// S3 batch delete supports up to 1000 objects per request
	const maxBatchSize = 1000
	var allFailed []string

	for i := 0; i < len(objectKeys); i += maxBatchSize {
		end := min(i+maxBatchSize, len(objectKeys))
		batch := objectKeys[i:end]

		objects := make([]types.ObjectIdentifier, len(batch))
		for j, key := range batch {
			objects[j] = types.ObjectIdentifier{
				Key: aws.String(key),
			}
		}

		deleteInput := &s3.DeleteObjectsInput{
			Bucket: aws.String(bucketID),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(false), // Return info about deleted and failed objects
			},
		}

		result, err := s3client.Client.DeleteObjects(ctx, deleteInput)
		if err != nil {
			// If the entire batch fails, consider all keys failed
			allFailed = append(allFailed, batch...)
			continue
		}

		for _, failed := range result.Errors {
			if failed.Key != nil {
				allFailed = append(allFailed, *failed.Key)
			}
		}

		deleteCount.Add(ctx, int64(len(batch)-len(result.Errors)), metric.WithAttributes(
			attribute.String("bucket", bucketID),
		))
	}

	if len(allFailed) > 0 {
		deleteErrors.Add(ctx, int64(len(allFailed)), metric.WithAttributes(
			attribute.String("bucket", bucketID),
		))
	}

	return allFailed, nil
}
