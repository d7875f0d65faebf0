package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

type s3BucketProvider struct {
	client *s3.Client
}

func NewS3BucketProvider(cfg aws.Config) *s3BucketProvider {
	return &s3BucketProvider{client: s3.NewFromConfig(cfg)}
}

func (p *s3BucketProvider) Resource() string {
	return "s3_buckets"
}

func (p *s3BucketProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	resp, err := p.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to list S3 buckets: %w", err)
	}

	var records []domain.Record
	for _, bucket := range resp.Buckets {
		name := aws.ToString(bucket.Name)

		count, err := p.objectCount(ctx, name)
		if err != nil {
			return domain.Snapshot{}, err
		}

		rec := domain.Record{
			"name":         name,
			"object_count": count,
		}
		if bucket.CreationDate != nil {
			rec["creation_date"] = bucket.CreationDate.UTC().Format(time.RFC3339)
		}
		records = append(records, rec)
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}

func (p *s3BucketProvider) objectCount(ctx context.Context, bucket string) (float64, error) {
	var count float64
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list objects in bucket %s: %w", bucket, err)
		}
		count += float64(aws.ToInt32(page.KeyCount))
	}
	return count, nil
}

type s3ObjectProvider struct {
	client *s3.Client
}

func NewS3ObjectProvider(cfg aws.Config) *s3ObjectProvider {
	return &s3ObjectProvider{client: s3.NewFromConfig(cfg)}
}

func (p *s3ObjectProvider) Resource() string {
	return "s3_objects"
}

func (p *s3ObjectProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	buckets, err := p.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to list S3 buckets: %w", err)
	}

	var records []domain.Record
	for _, bucket := range buckets.Buckets {
		name := aws.ToString(bucket.Name)
		paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(name),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return domain.Snapshot{}, fmt.Errorf("failed to list objects in bucket %s: %w", name, err)
			}
			for _, object := range page.Contents {
				rec := domain.Record{
					"bucket":        name,
					"key":           aws.ToString(object.Key),
					"storage_class": string(object.StorageClass),
					"size":          float64(aws.ToInt64(object.Size)),
				}
				if object.LastModified != nil {
					rec["last_modified"] = object.LastModified.UTC().Format(time.RFC3339)
				}
				records = append(records, rec)
			}
		}
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}
