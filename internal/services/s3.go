package services

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Source serves fixture files from a bucket prefix.
type S3Source struct {
	client     s3iface.S3API
	bucketName string
	prefix     string
}

// NewS3Source builds a client for region. Empty keys fall back to the
// default AWS credential chain (environment, shared config, instance role).
func NewS3Source(region, bucketName, prefix, accessKey, secretKey string) (*S3Source, error) {
	awsConfig := &aws.Config{Region: aws.String(region)}
	if accessKey != "" && secretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return NewS3SourceWithClient(s3.New(sess), bucketName, prefix), nil
}

func NewS3SourceWithClient(client s3iface.S3API, bucketName, prefix string) *S3Source {
	return &S3Source{client: client, bucketName: bucketName, prefix: prefix}
}

func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := path.Join(s.prefix, name)

	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrFixtureMissing, s.bucketName, key)
		}
		return nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", s.bucketName, key, err)
	}
	return out.Body, nil
}

func (s *S3Source) String() string {
	return fmt.Sprintf("s3://%s/%s", s.bucketName, s.prefix)
}
