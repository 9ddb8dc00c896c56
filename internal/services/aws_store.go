package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/damacus/bucket-explorer/internal/models"
)

// s3API is the subset of *s3.Client used by WrappedS3Client
type s3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// WrappedS3Client adapts the AWS SDK v2 client to StoreClient
type WrappedS3Client struct {
	client s3API
}

func (c *WrappedS3Client) ListBuckets(ctx context.Context) ([]BucketEntry, error) {
	out, err := c.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}

	entries := make([]BucketEntry, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		entries = append(entries, BucketEntry{
			Name:         aws.ToString(b.Name),
			CreationDate: aws.ToTime(b.CreationDate),
		})
	}
	return entries, nil
}

func (c *WrappedS3Client) ListObjects(ctx context.Context, opts ListObjectsOptions) (ListObjectsResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(opts.Bucket),
		Delimiter: aws.String(opts.Delimiter),
		MaxKeys:   aws.Int32(int32(opts.MaxKeys)),
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	if opts.ContinuationToken != "" {
		input.ContinuationToken = aws.String(opts.ContinuationToken)
	}

	out, err := c.client.ListObjectsV2(ctx, input)
	if err != nil {
		return ListObjectsResult{}, err
	}

	result := ListObjectsResult{
		CommonPrefixes:        make([]string, 0, len(out.CommonPrefixes)),
		Contents:              make([]ObjectEntry, 0, len(out.Contents)),
		IsTruncated:           aws.ToBool(out.IsTruncated),
		NextContinuationToken: aws.ToString(out.NextContinuationToken),
	}
	for _, p := range out.CommonPrefixes {
		result.CommonPrefixes = append(result.CommonPrefixes, aws.ToString(p.Prefix))
	}
	for _, obj := range out.Contents {
		result.Contents = append(result.Contents, ObjectEntry{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         aws.ToString(obj.ETag),
			StorageClass: string(obj.StorageClass),
		})
	}
	return result, nil
}

func (c *WrappedS3Client) GetObject(ctx context.Context, bucket, key string) (*ObjectStream, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return &ObjectStream{
		Body:               out.Body,
		ContentDisposition: aws.ToString(out.ContentDisposition),
		ContentType:        aws.ToString(out.ContentType),
		Size:               aws.ToInt64(out.ContentLength),
	}, nil
}

// AWSFactory builds StoreClients on the AWS SDK v2
type AWSFactory struct{}

// endpointURL makes sure the endpoint carries a scheme, as BaseEndpoint requires one
func endpointURL(endpoint string) string {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if shouldUseSSL(endpoint) {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func (f *AWSFactory) NewClient(profile models.ConnectionProfile) (StoreClient, error) {
	if _, _, err := parseEndpoint(profile.Endpoint); err != nil {
		return nil, &APIError{Code: CodeInvalidProfile, Message: err.Error(), Status: http.StatusBadRequest, Err: err}
	}

	region := profile.Region
	if region == "" {
		region = models.DefaultRegion
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			profile.AccessKeyID,
			profile.SecretAccessKey,
			"",
		)),
		config.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpointURL(profile.Endpoint))
		o.UsePathStyle = profile.ForcePathStyle
	})
	return &WrappedS3Client{client: client}, nil
}
