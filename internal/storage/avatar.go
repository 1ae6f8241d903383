// Package storage hands out presigned upload URLs for user avatars kept in an
// S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dom/notely/internal/config"
)

var (
	loadAWSConfig = awsconfig.LoadDefaultConfig

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// UploadTarget tells the client where to PUT the image and which URL to save
// as the avatar afterwards.
type UploadTarget struct {
	UploadURL string    `json:"uploadUrl"`
	Method    string    `json:"method"`
	AvatarURL string    `json:"avatarUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type S3AvatarStore struct {
	presign *s3.PresignClient
	cfg     config.AvatarConfig
}

func NewS3AvatarStore(ctx context.Context, cfg config.AvatarConfig) (*S3AvatarStore, error) {
	awsCfg, err := loadAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
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

	return &S3AvatarStore{presign: s3.NewPresignClient(client), cfg: cfg}, nil
}

func avatarKey(userID uuid.UUID) string {
	return fmt.Sprintf("avatars/%s/%s", userID, uuid.New())
}

// PresignUpload returns a short-lived PUT URL under the user's avatar prefix.
func (s *S3AvatarStore) PresignUpload(ctx context.Context, userID uuid.UUID) (*UploadTarget, error) {
	key := avatarKey(userID)
	expires := time.Now().Add(s.cfg.PresignTTL)

	req, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.PresignTTL))
	if err != nil {
		return nil, fmt.Errorf("presign avatar upload: %w", err)
	}

	return &UploadTarget{
		UploadURL: req.URL,
		Method:    req.Method,
		AvatarURL: s.publicURL(key),
		Key:       key,
		ExpiresAt: expires,
	}, nil
}

func (s *S3AvatarStore) publicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
