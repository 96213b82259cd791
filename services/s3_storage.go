package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Config targets AWS S3 or, with Endpoint set, a MinIO-style server.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Bucket          string
	UseSSL          bool
}

type s3Backend struct {
	client *s3.S3
	cfg    S3Config
}

func newS3Backend(cfg S3Config) (*s3Backend, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	b := &s3Backend{cfg: cfg}
	if !b.configured() {
		return b, nil
	}

	awsConfig := &aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		awsConfig.DisableSSL = aws.Bool(!cfg.UseSSL)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	b.client = s3.New(sess)
	return b, nil
}

func (b *s3Backend) configured() bool {
	return b.cfg.Bucket != "" && b.cfg.AccessKeyID != "" && b.cfg.SecretAccessKey != ""
}

func (b *s3Backend) put(ctx context.Context, objectPath string, body io.ReadSeeker, contentType string) error {
	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.cfg.Bucket),
		Key:         aws.String(objectPath),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	return err
}

func (b *s3Backend) publicURL(objectPath string) string {
	if endpoint := b.cfg.Endpoint; endpoint != "" && !strings.Contains(endpoint, "amazonaws.com") {
		protocol := "http"
		if b.cfg.UseSSL {
			protocol = "https"
		}
		endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
		return fmt.Sprintf("%s://%s/%s/%s", protocol, strings.TrimRight(endpoint, "/"), b.cfg.Bucket, objectPath)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.cfg.Bucket, b.cfg.Region, objectPath)
}
