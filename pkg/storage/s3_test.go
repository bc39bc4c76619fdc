package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
	headErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(params.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Storage_UploadDownload(t *testing.T) {
	fake := newFakeS3()
	store := newS3Storage(fake, S3Config{Bucket: "vouchers", Region: "eu-central-1"})
	ctx := context.Background()

	result, err := store.Upload(ctx, "vouchers/a/b.pdf", bytes.NewReader([]byte("%PDF")), 4, ContentTypePDF)
	require.NoError(t, err)
	assert.Equal(t, "https://vouchers.s3.eu-central-1.amazonaws.com/vouchers/a/b.pdf", result.URL)

	exists, err := store.Exists(ctx, "vouchers/a/b.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	body, err := store.Download(ctx, "vouchers/a/b.pdf")
	require.NoError(t, err)
	defer body.Close()
	data, _ := io.ReadAll(body)
	assert.Equal(t, "%PDF", string(data))
}

func TestS3Storage_Exists(t *testing.T) {
	fake := newFakeS3()
	store := newS3Storage(fake, S3Config{Bucket: "b", Endpoint: "http://minio:9000"})

	exists, err := store.Exists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	fake.headErr = errors.New("access denied")
	_, err = store.Exists(context.Background(), "missing")
	assert.Error(t, err)

	assert.Equal(t, "http://minio:9000/b/k", store.GetURL("k"))
}

func TestS3Storage_UploadError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("throttled")
	store := newS3Storage(fake, S3Config{Bucket: "b", BaseURL: "https://cdn.example.com"})

	_, err := store.Upload(context.Background(), "k", bytes.NewReader(nil), 0, ContentTypePDF)

	assert.ErrorContains(t, err, "throttled")
}

func TestVoucherKey(t *testing.T) {
	id := uuid.MustParse("6f1d7c3e-2a4b-4c1d-9e8f-0a1b2c3d4e5f")
	assert.Equal(t, "vouchers/6f1d7c3e-2a4b-4c1d-9e8f-0a1b2c3d4e5f/0a1b2c3d.pdf", VoucherKey(id, "0a1b2c3d"))
}
