package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration for reward images and
// child avatars.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// PublicBaseURL is the browser-facing URL prefix for uploaded objects
	// (CDN or public bucket endpoint).
	PublicBaseURL string
}

// Enabled reports whether enough configuration is present to upload.
func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Service uploads images to an S3-compatible bucket and hands back public URLs.
type Service struct {
	cfg    Config
	client s3Client
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg, client: newS3Client(cfg)}
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// allowed image extensions, keyed to content types we accept.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Put stores the file under a random key in the given folder ("rewards" or
// "avatars") and returns its public URL.
func (s *Service) Put(ctx context.Context, folder, filename string, body io.Reader, size int64) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := contentTypes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	base := strings.TrimSuffix(s.cfg.PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket
	}
	return base + "/" + key, nil
}

// Delete removes an uploaded object by its key.
func (s *Service) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
