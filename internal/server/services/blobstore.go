package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	sc "github.com/dmitrijs2005/vanish/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// BlobStore hands out short-lived URLs for media blobs. The server never
// streams blob bytes itself.
type BlobStore interface {
	PresignPut(ctx context.Context, ownerID string) (key, url string, err error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// S3BlobStore presigns against an S3-compatible backend (MinIO in dev).
type S3BlobStore struct {
	config *sc.Config

	mu     sync.Mutex
	client *s3.PresignClient
}

func NewS3BlobStore(config *sc.Config) *S3BlobStore {
	return &S3BlobStore{config: config}
}

// StorageKey builds a fresh object key for an upload by ownerID.
func StorageKey(ownerID string, now time.Time) string {
	return fmt.Sprintf("media/%s/%d/%02d/%02d/%v", ownerID, now.Year(), now.Month(), now.Day(), uuid.New())
}

func (s *S3BlobStore) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	s.client = newS3PresignClient(client)
	return s.client, nil
}

func (s *S3BlobStore) PresignPut(ctx context.Context, ownerID string) (string, string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := StorageKey(ownerID, time.Now().UTC())

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignValidity))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

func (s *S3BlobStore) PresignGet(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
