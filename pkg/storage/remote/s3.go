package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type s3Client struct {
	client *minio.Client
	bucket string
}

func newS3Client(cfg Config) (Client, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &s3Client{client: cl, bucket: cfg.Bucket}, nil
}

// objectKey maps an absolute remote path onto a bucket key.
func objectKey(remotePath string) string {
	return strings.TrimPrefix(remotePath, "/")
}

// MkdirAll is a no-op: object stores have no directories.
func (c *s3Client) MkdirAll(ctx context.Context, dir string) error {
	return nil
}

func (c *s3Client) Put(ctx context.Context, remotePath, localPath string) error {
	_, err := c.client.FPutObject(ctx, c.bucket, objectKey(remotePath), localPath, minio.PutObjectOptions{})
	return err
}

func (c *s3Client) Delete(ctx context.Context, remotePath string) error {
	return c.client.RemoveObject(ctx, c.bucket, objectKey(remotePath), minio.RemoveObjectOptions{})
}

func (c *s3Client) Stat(ctx context.Context, remotePath string) (int64, error) {
	info, err := c.client.StatObject(ctx, c.bucket, objectKey(remotePath), minio.StatObjectOptions{})
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

func (c *s3Client) Close() error {
	return nil
}
