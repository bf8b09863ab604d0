package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/quantivue/backend/configs"
)

// r2Store uploads media to Cloudflare R2 through the S3 API. Objects are
// publicly readable under the bucket's public URL.
type r2Store struct {
	cfg config.R2
}

func NewR2Store(cfg config.R2) MediaStore {
	return &r2Store{cfg: cfg}
}

func (s *r2Store) client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.cfg.AccessKey, s.cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.cfg.AccountID))
	}), nil
}

func (s *r2Store) Save(ctx context.Context, fileName, contentType string, data []byte) (string, string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", "", err
	}

	return fileName, s.URLFor(fileName), nil
}

func (s *r2Store) URLFor(fileName string) string {
	return fmt.Sprintf("https://pub-%s.r2.dev/%s", s.cfg.AccountID, fileName)
}
