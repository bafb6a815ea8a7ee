// Package remote abstracts the media-serving host the ingestion pipeline
// places files on. The streaming host is a plain unix filesystem reached
// over SFTP; dev stacks without one substitute an S3-compatible store.
package remote

import (
	"context"
	"fmt"
)

// Config contains the information required to talk to the media host.
type Config struct {
	Provider string
	Addr     string
	User     string
	Password string

	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Client represents the placement capabilities the pipeline expects.
type Client interface {
	// MkdirAll creates the remote directory path, parents included.
	MkdirAll(ctx context.Context, dir string) error
	// Put uploads the local file to the remote path.
	Put(ctx context.Context, remotePath, localPath string) error
	// Delete removes the remote path.
	Delete(ctx context.Context, remotePath string) error
	// Stat returns the size in bytes of the remote path.
	Stat(ctx context.Context, remotePath string) (int64, error)
	Close() error
}

// New creates a placement client based on the given configuration.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "sftp":
		return newSFTPClient(cfg)
	case "s3", "minio":
		return newS3Client(cfg)
	default:
		return nil, fmt.Errorf("unsupported remote provider: %s", cfg.Provider)
	}
}
