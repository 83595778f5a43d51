package s3client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sync"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`

	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Enabled is false for an empty config; the mirror is optional.
func (c *Config) Enabled() bool {
	return c != nil && c.Endpoint != "" && c.Bucket != ""
}

type Client struct {
	cfg            *Config
	minio          *minio.Client
	ensuredBuckets sync.Map
}

func New(ctx context.Context, cfg *Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:   cfg,
		minio: mc,
	}

	return c, nil
}

func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	if _, ok := c.ensuredBuckets.Load(bucket); ok {
		return nil
	}

	exists, err := c.minio.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.minio.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	c.ensuredBuckets.Store(bucket, struct{}{})
	return nil
}

func (c *Client) PutObject(ctx context.Context, bucket string, objectName string, reader io.Reader, size int64, contentType string) error {
	if err := c.EnsureBucket(ctx, bucket); err != nil {
		return err
	}
	_, err := c.minio.PutObject(ctx, bucket, objectName, reader, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (c *Client) StatObject(ctx context.Context, bucket string, objectName string) (minio.ObjectInfo, error) {
	return c.minio.StatObject(ctx, bucket, objectName, minio.StatObjectOptions{})
}

// ObjectName is where the asset of videoID is mirrored to.
func (c *Client) ObjectName(videoID, localPath string) string {
	return path.Join(c.cfg.Prefix, videoID+filepath.Ext(localPath))
}

// MirrorAsset uploads the committed asset at localPath, overwriting the
// previous copy of the same video.
func (c *Client) MirrorAsset(ctx context.Context, videoID, localPath string) error {
	if err := c.EnsureBucket(ctx, c.cfg.Bucket); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat asset: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := c.PutObject(ctx, c.cfg.Bucket, c.ObjectName(videoID, localPath), f, info.Size(), contentType); err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}
