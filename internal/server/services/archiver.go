package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/bloomwell/telehealth/internal/server/config"
	"github.com/bloomwell/telehealth/internal/server/models"
)

// Archiver stores a category export before its rows are hard-deleted.
type Archiver interface {
	Archive(ctx context.Context, userID string, category models.DataCategory, payload []byte) error
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Archiver writes exports to an S3-compatible bucket under
// retention/<user>/<category>/<timestamp>.json.
type S3Archiver struct {
	config *sc.Config
}

func NewS3Archiver(config *sc.Config) *S3Archiver {
	return &S3Archiver{config: config}
}

func (a *S3Archiver) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(a.config.ArchiveRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.config.ArchiveRootUser,
			a.config.ArchiveRootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if a.config.ArchiveBaseEndpoint != "" {
			o.BaseEndpoint = aws.String(a.config.ArchiveBaseEndpoint)
		}
	}), nil
}

func (a *S3Archiver) Archive(ctx context.Context, userID string, category models.DataCategory, payload []byte) error {
	client, err := a.getClient(ctx)
	if err != nil {
		return fmt.Errorf("archive client init: %w", err)
	}

	key := fmt.Sprintf("retention/%s/%s/%d.json", userID, category, time.Now().Unix())
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.config.ArchiveBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive put: %w", err)
	}
	return nil
}
