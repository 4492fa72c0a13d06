package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type Config struct {
	Endpoint       string `yaml:"endpoint"`
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"accessKey"`
	SecretKey      string `yaml:"secretKey"`
	PublicEndpoint string `yaml:"publicEndpoint"`
	SSLDisabled    bool   `yaml:"sslDisabled"`
}

type s3Storage struct {
	uploader *s3manager.Uploader
	cfg      Config
}

func NewS3Storage(cfg Config) (Storage, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Endpoint:         aws.String(cfg.Endpoint),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(cfg.SSLDisabled),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 session: %w", err)
	}

	return &s3Storage{
		uploader: s3manager.NewUploader(sess),
		cfg:      cfg,
	}, nil
}

// PublicURL is the address an object is served from once uploaded.
func PublicURL(publicEndpoint, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(publicEndpoint, "/"), bucket, key)
}

func (s *s3Storage) Upload(ctx context.Context, object *UploadObject) (*UploadResponse, error) {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(object.Bucket),
		Key:         aws.String(object.Key),
		Body:        bytes.NewReader(object.Data),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(object.Mime),
	})
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w, bucket %s, key %s", err, object.Bucket, object.Key)
	}

	return &UploadResponse{
		URL: PublicURL(s.cfg.PublicEndpoint, object.Bucket, object.Key),
		Key: object.Key,
	}, nil
}
