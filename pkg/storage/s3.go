package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	pkglogger "github.com/bazaarhub/negotiation-backend/pkg/logger"
)

// ErrInvalidKey object key rejected before signing
var ErrInvalidKey = errors.New("invalid object key")

// S3Presigner issues short-lived GET URLs for chat attachments
// stored in S3/R2/MinIO compatible storage
type S3Presigner struct {
	presign  *s3.PresignClient
	bucket   string
	basePath string // prefix for all objects (e.g. "chat/")
	expiry   time.Duration
	now      func() time.Time
}

// S3Config holds S3-compatible storage configuration
type S3Config struct {
	Endpoint        string // e.g. https://xxx.r2.cloudflarestorage.com
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	BasePath        string
	ForcePathStyle  bool // true for MinIO/R2
	Expiry          time.Duration
}

// NewS3Presigner creates a presigner. Signing is local; no request is sent.
func NewS3Presigner(cfg S3Config) (*S3Presigner, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 15 * time.Minute
	}

	client := s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	pkglogger.GetLogger().Info().
		Str("bucket", cfg.Bucket).
		Str("endpoint", cfg.Endpoint).
		Msg("S3 attachment presigner initialized")

	return &S3Presigner{
		presign:  s3.NewPresignClient(client),
		bucket:   cfg.Bucket,
		basePath: cfg.BasePath,
		expiry:   cfg.Expiry,
		now:      time.Now,
	}, nil
}

// PresignGet returns a download URL for key and the time it stops working
func (p *S3Presigner) PresignGet(ctx context.Context, key string) (string, time.Time, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	issuedAt := p.now()
	result, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.basePath + key),
	}, s3.WithPresignExpires(p.expiry))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign failed: %w", err)
	}
	return result.URL, issuedAt.Add(p.expiry), nil
}
