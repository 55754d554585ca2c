package s3

import (
	"context"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/warehouse-tools/priceplan/pkg/models/store"
	"github.com/warehouse-tools/priceplan/pkg/store/csvfile"
)

const (
	DefaultRegion = "us-east-1" // Default region if not specified in AWS profile
)

func LoadConfig(ctx context.Context, profile, region string) (*awssdk.Config, error) {
	if region == "" {
		region = DefaultRegion
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithSharedConfigProfile(profile),
		config.WithDefaultRegion(region),
	)

	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	// Test the credentials
	_, err = awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid AWS credentials for profile %s: %w", profile, err)
	}

	return &awsCfg, nil
}

// Store reads daily sales exports, one CSV object per day, from a bucket
// prefix.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewStore(cfg awssdk.Config, bucket, prefix string) *Store {
	return &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *Store) Load(ctx context.Context) ([]store.SalesRecord, error) {
	var records []store.SalesRecord
	var continuationToken *string

	for {
		resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            awssdk.String(s.bucket),
			Prefix:            awssdk.String(s.prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, fmt.Errorf("list objects in s3://%s/%s: %w", s.bucket, s.prefix, err)
		}

		for _, obj := range resp.Contents {
			key := awssdk.ToString(obj.Key)
			if !strings.HasSuffix(key, ".csv") {
				continue
			}

			parsed, err := s.loadObject(ctx, key)
			if err != nil {
				return nil, err
			}
			records = append(records, parsed...)
		}

		if resp.IsTruncated == nil || !*resp.IsTruncated {
			break
		}
		continuationToken = resp.NextContinuationToken
	}

	return records, nil
}

func (s *Store) loadObject(ctx context.Context, key string) ([]store.SalesRecord, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(s.bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer resp.Body.Close()

	records, err := csvfile.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse s3://%s/%s: %w", s.bucket, key, err)
	}
	return records, nil
}
