package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"blugr/internal/config"
	"blugr/internal/services"
)

// Uploader stores extracted media objects and reports whether a key already
// exists. The pipeline treats an existing remote object as satisfying the
// extraction step for that key.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Key(category, contentID, filename string) string
	URL(key string) string
}

// Client is the S3-backed Uploader.
type Client struct {
	s3     *s3.Client
	bucket string
	region string
	prefix string
}

// New builds an S3 client from the storage configuration. Returns nil when
// object storage is disabled; callers treat a nil client as local-only
// operation.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.Region))
	if err != nil {
		return nil, services.Wrap(services.ErrPermanent, "storage", "init", "load aws config", err)
	}
	return &Client{
		s3:     s3.NewFromConfig(awsCfg),
		bucket: cfg.Storage.Bucket,
		region: cfg.Storage.Region,
		prefix: cfg.Storage.Prefix,
	}, nil
}

// Key builds the object key for a media artifact.
func (c *Client) Key(category, contentID, filename string) string {
	return path.Join(c.prefix, category, contentID, filename)
}

// Upload stores a local file under the given key and returns its public URL.
func (c *Client) Upload(ctx context.Context, localPath, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", services.Wrap(services.ErrPermanent, "storage", "upload",
			fmt.Sprintf("open %s", localPath), err)
	}
	defer file.Close()

	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "storage", "upload",
			fmt.Sprintf("put object %s", key), err)
	}
	return c.URL(key), nil
}

// Exists reports whether an object already lives under the key.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, services.Wrap(services.ErrTransient, "storage", "head",
			fmt.Sprintf("head object %s", key), err)
	}
	return true, nil
}

// URL returns the public address for an object key.
func (c *Client) URL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}
