package limitstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3api "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/joeydtaylor/makewaves/pkg/internal/safety"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, in *s3api.GetObjectInput, optFns ...func(*s3api.Options)) (*s3api.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3api.PutObjectInput, optFns ...func(*s3api.Options)) (*s3api.PutObjectOutput, error)
}

// S3Store keeps the table as one object.
type S3Store struct {
	api         S3API
	bucket      string
	key         string
	compression string
}

// NewS3Store returns a store for s3://bucket/key.
func NewS3Store(api S3API, bucket, key string) *S3Store {
	return &S3Store{api: api, bucket: bucket, key: key, compression: "zstd"}
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context) (*safety.Table, error) {
	out, err := s.api.GetObject(ctx, &s3api.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	data, err := io.ReadAll(out.Body)
	_ = out.Body.Close()
	if err != nil {
		return nil, err
	}
	t, err := Decode(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return t, nil
}

// Save implements Store.
func (s *S3Store) Save(ctx context.Context, t *safety.Table) error {
	var buf bytes.Buffer
	if err := Encode(&buf, t, s.compression); err != nil {
		return err
	}
	_, err := s.api.PutObject(ctx, &s3api.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}
