package registrybackend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type fakeS3 struct {
	body    string
	etag    string
	getErr  error
	putErr  error
	lastPut *s3.PutObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{
		Body:      io.NopCloser(strings.NewReader(f.body)),
		ETag:      aws.String(`"` + f.etag + `"`),
		VersionId: aws.String("ver-1"),
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastPut = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3.PutObjectOutput{ETag: aws.String(`"new-etag"`), VersionId: aws.String("ver-2")}, nil
}

func responseError(status int) error {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
			Err:      errors.New("api error"),
		},
		RequestID: "req-1",
	}
}

func TestS3_Get(t *testing.T) {
	api := &fakeS3{body: `{"site":{},"brands":{}}`, etag: "abc"}
	b := NewS3(api, "bucket", "CONTENT/registry.json", 0)

	doc, err := b.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.ETag != "abc" || doc.VersionID != "ver-1" || string(doc.Body) != api.body {
		t.Errorf("Get() = %+v", doc)
	}
}

func TestS3_GetNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"no such key", &types.NoSuchKey{}},
		{"404", responseError(http.StatusNotFound)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewS3(&fakeS3{getErr: tt.err}, "bucket", "k", 0)
			if _, err := b.Get(context.Background()); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestS3_GetTooLarge(t *testing.T) {
	b := NewS3(&fakeS3{body: strings.Repeat("x", 20)}, "bucket", "k", 10)
	if _, err := b.Get(context.Background()); err == nil {
		t.Error("Get() error = nil for oversized object")
	}
}

func TestS3_CommitConditional(t *testing.T) {
	api := &fakeS3{}
	b := NewS3(api, "bucket", "k", 0)

	doc, err := b.Commit(context.Background(), []byte(`{}`), `W/"abc"`)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got := aws.ToString(api.lastPut.IfMatch); got != `"abc"` {
		t.Errorf("IfMatch = %q, want %q", got, `"abc"`)
	}
	if aws.ToString(api.lastPut.CacheControl) != "no-store" || aws.ToString(api.lastPut.ContentType) != "application/json" {
		t.Errorf("put headers = %q / %q", aws.ToString(api.lastPut.CacheControl), aws.ToString(api.lastPut.ContentType))
	}
	if doc.ETag != "new-etag" || doc.VersionID != "ver-2" {
		t.Errorf("Commit() = %+v", doc)
	}

	if _, err := b.Commit(context.Background(), []byte(`{}`), ""); err != nil {
		t.Fatalf("Commit(unconditional) error = %v", err)
	}
	if api.lastPut.IfMatch != nil {
		t.Errorf("IfMatch = %q on unconditional write", aws.ToString(api.lastPut.IfMatch))
	}
}

func TestS3_CommitConflict(t *testing.T) {
	for _, status := range []int{http.StatusPreconditionFailed, http.StatusConflict} {
		b := NewS3(&fakeS3{putErr: responseError(status)}, "bucket", "k", 0)
		if _, err := b.Commit(context.Background(), []byte(`{}`), "abc"); !errors.Is(err, ErrConflict) {
			t.Errorf("status %d: Commit() error = %v, want ErrConflict", status, err)
		}
	}

	b := NewS3(&fakeS3{putErr: responseError(http.StatusInternalServerError)}, "bucket", "k", 0)
	if _, err := b.Commit(context.Background(), []byte(`{}`), "abc"); err == nil || errors.Is(err, ErrConflict) {
		t.Errorf("500: Commit() error = %v, want non-conflict error", err)
	}
}
