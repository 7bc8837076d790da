package aws

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Put uploads a blob under the given key, overwriting anything there
func (c *S3Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.C.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        c.Bucket,
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object to S3, %w", err)
	}

	return nil
}

// Get downloads the full blob stored under key
func (c *S3Client) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.C.GetObject(ctx, &s3.GetObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object from S3, %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body, %w", err)
	}

	return data, nil
}

// Head returns the stored byte length of the blob under key
func (c *S3Client) Head(ctx context.Context, key string) (int64, error) {
	resp, err := c.C.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to stat object, %w", err)
	}

	return aws.ToInt64(resp.ContentLength), nil
}

// Delete removes the blob under key. Deleting a missing key is not an error
func (c *S3Client) Delete(ctx context.Context, key string) error {
	_, err := c.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3, %w", err)
	}

	return nil
}

// SignedGetURL returns a time limited URL granting direct read access to
// the blob under key without any further authorization checks
func (c *S3Client) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := c.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign GET, %w", err)
	}

	return req.URL, nil
}

// SignedPutURL returns a time limited URL the client can PUT bytes to
// directly, skipping the API for large payloads
func (c *S3Client) SignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	req, err := c.Presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      c.Bucket,
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign PUT, %w", err)
	}

	return req.URL, nil
}
