package signer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Presigner is the subset of *s3.PresignClient the S3 signer uses.
type Presigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3 presigns PUT requests directly against the bucket.
type S3 struct {
	presigner Presigner
	bucket    string
	prefix    string
	expiry    time.Duration
}

// NewS3 creates an S3 signer. Object keys are prefix + the cleaned path.
func NewS3(presigner Presigner, bucket, prefix string, expiry time.Duration) *S3 {
	return &S3{presigner: presigner, bucket: bucket, prefix: prefix, expiry: expiry}
}

func (s *S3) Name() string { return "s3" }

func (s *S3) Sign(ctx context.Context, p, contentType string) (*Signed, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	key := s.prefix + clean
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}

	headers := map[string]string{}
	for k, v := range req.SignedHeader {
		if http.CanonicalHeaderKey(k) == "Host" || len(v) == 0 {
			continue
		}
		headers[http.CanonicalHeaderKey(k)] = v[0]
	}
	headers["Content-Type"] = contentType

	return &Signed{URL: req.URL, Headers: headers, Key: clean}, nil
}
