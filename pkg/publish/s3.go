package publish

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/open-mpi/mtt-reporter/pkg/config"
	"github.com/sirupsen/logrus"
)

// Compile-time interface check.
var _ Publisher = (*s3Publisher)(nil)

type s3Publisher struct {
	log    logrus.FieldLogger
	cfg    *config.S3PublishConfig
	client *s3.Client
}

// NewS3Publisher uploads digests to an S3-compatible bucket.
func NewS3Publisher(log logrus.FieldLogger, cfg *config.S3PublishConfig) (Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	return &s3Publisher{
		log:    log.WithField("component", "s3-publisher"),
		cfg:    cfg,
		client: newS3Client(cfg),
	}, nil
}

func newS3Client(cfg *config.S3PublishConfig) *s3.Client {
	return s3.New(s3.Options{}, func(o *s3.Options) {
		if cfg.Region != "" {
			o.Region = cfg.Region
		} else {
			o.Region = "us-east-1"
		}

		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}

		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}

		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, "",
			)
		}
	})
}

func (p *s3Publisher) Publish(ctx context.Context, name string, body []byte) (string, error) {
	key := p.objectKey(name)

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading s3://%s/%s: %w", p.cfg.Bucket, key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", p.cfg.Bucket, key)

	p.log.WithField("location", location).Info("Digest published")

	return location, nil
}

// objectKey places name under the configured prefix.
func (p *s3Publisher) objectKey(name string) string {
	prefix := strings.Trim(p.cfg.Prefix, "/")
	if prefix == "" {
		return name
	}

	return prefix + "/" + strings.TrimLeft(name, "/")
}
