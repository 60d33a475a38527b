// Package s3storetest provides an in-memory s3store.API for tests.
package s3storetest

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Fake honours If-None-Match: * the way S3 and MinIO do. Objects is keyed by
// "<bucket>/<key>".
type Fake struct {
	mu      sync.Mutex
	Objects map[string][]byte

	PutErr    error
	GetErr    error
	DeleteErr error
}

func New() *Fake {
	return &Fake{Objects: make(map[string][]byte)}
}

func (f *Fake) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.PutErr != nil {
		return nil, f.PutErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	if _, ok := f.Objects[key]; ok && aws.ToString(in.IfNoneMatch) == "*" {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}
	f.Objects[key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *Fake) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	body, ok := f.Objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *Fake) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.DeleteErr != nil {
		return nil, f.DeleteErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.Objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// Get returns the stored object under bucket/key.
func (f *Fake) Get(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.Objects[bucket+"/"+key]
	return b, ok
}
