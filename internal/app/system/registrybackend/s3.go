package registrybackend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dalemusser/stratacatalog/internal/app/system/etag"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
)

// S3API is the subset of *s3.Client the S3 backend uses.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 keeps the registry as a single object. Conditional writes use If-Match,
// so the bucket's ETag is the change-token.
type S3 struct {
	api      S3API
	bucket   string
	key      string
	maxBytes int64
}

// NewS3 creates an S3 backend for bucket/key.
func NewS3(api S3API, bucket, key string, maxBytes int64) *S3 {
	if maxBytes <= 0 {
		maxBytes = 16 << 20
	}
	return &S3{api: api, bucket: bucket, key: key, maxBytes: maxBytes}
}

func (b *S3) Name() string { return "s3" }

func (b *S3) Get(ctx context.Context) (*models.RegistryDocument, error) {
	out, err := b.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3 get %s: %w", b.key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, b.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", b.key, err)
	}
	if int64(len(body)) > b.maxBytes {
		return nil, fmt.Errorf("s3 read %s: registry exceeds %d bytes", b.key, b.maxBytes)
	}

	doc := &models.RegistryDocument{
		Singleton: true,
		Body:      body,
		ETag:      etag.Normalize(aws.ToString(out.ETag)),
		VersionID: aws.ToString(out.VersionId),
	}
	if out.LastModified != nil {
		doc.UpdatedAt = out.LastModified.UTC()
	}
	return doc, nil
}

func (b *S3) Commit(ctx context.Context, body []byte, expectedETag string) (*models.RegistryDocument, error) {
	in := &s3.PutObjectInput{
		Bucket:       aws.String(b.bucket),
		Key:          aws.String(b.key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-store"),
	}
	if exp := etag.Normalize(expectedETag); exp != "" {
		in.IfMatch = aws.String(etag.Quote(exp))
	}

	out, err := b.api.PutObject(ctx, in)
	if err != nil {
		if conflict(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("s3 put %s: %w", b.key, err)
	}

	tag := etag.Normalize(aws.ToString(out.ETag))
	if tag == "" {
		tag = etag.Compute(body)
	}
	return &models.RegistryDocument{
		Singleton: true,
		Body:      body,
		ETag:      tag,
		VersionID: aws.ToString(out.VersionId),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func statusCode(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

func notFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	return statusCode(err) == http.StatusNotFound
}

// A failed If-Match is 412; a concurrent conditional write can also surface as 409.
func conflict(err error) bool {
	switch statusCode(err) {
	case http.StatusPreconditionFailed, http.StatusConflict:
		return true
	}
	return false
}
