package imagehost

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config holds configuration for S3-compatible storage.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional: R2, Spaces, MinIO
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL overrides the URL prefix returned for uploaded objects.
	PublicBaseURL string
}

// IsConfigured reports whether a bucket and credentials are set.
func (c S3Config) IsConfigured() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// S3 uploads images to an S3-compatible bucket under listings/.
type S3 struct {
	client *s3.Client
	cfg    S3Config
	now    func() time.Time
}

// NewS3 creates an S3 uploader.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if !cfg.IsConfigured() {
		return nil, ErrNotConfigured
	}
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{client: client, cfg: cfg, now: time.Now}, nil
}

// Upload stores the image under a fresh key and returns its public URL.
func (u *S3) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	key := u.objectKey(name)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return u.PublicURL(key), nil
}

func (u *S3) objectKey(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("listings/%s/%s%s", u.now().UTC().Format("2006/01"), uuid.NewString(), ext)
}

// PublicURL returns the URL an object key is served from.
func (u *S3) PublicURL(key string) string {
	switch {
	case u.cfg.PublicBaseURL != "":
		return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + key
	case u.cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.cfg.Endpoint, "/"), u.cfg.Bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
	}
}
