package vault

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps objects in memory. Archives in these tests stay below the
// uploader's part size, so only the single PutObject path is exercised.
type fakeS3 struct {
	mu          sync.Mutex
	objects     map[string][]byte
	bucketError error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.bucketError != nil {
		return nil, f.bucketError
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Vault_PutGet(t *testing.T) {
	fake := newFakeS3()
	v := newS3Vault("remote", "bucket", "/lorebook/", fake)

	require.NoError(t, v.PutArchive("saga.zip", strings.NewReader("zipdata"), 7))
	assert.Contains(t, fake.objects, "lorebook/archives/saga.zip")

	var buf bytes.Buffer
	require.NoError(t, v.GetArchive("saga.zip", &buf))
	assert.Equal(t, "zipdata", buf.String())
}

func TestS3Vault_NoPrefix(t *testing.T) {
	fake := newFakeS3()
	v := newS3Vault("remote", "bucket", "", fake)

	require.NoError(t, v.PutArchive("saga.zip", strings.NewReader("x"), 1))
	assert.Contains(t, fake.objects, "archives/saga.zip")
}

func TestS3Vault_SizeMismatch(t *testing.T) {
	v := newS3Vault("remote", "bucket", "", newFakeS3())

	err := v.PutArchive("saga.zip", strings.NewReader("abc"), 10)
	assert.Error(t, err)
}

func TestS3Vault_InvalidName(t *testing.T) {
	v := newS3Vault("remote", "bucket", "", newFakeS3())

	assert.Error(t, v.PutArchive("../saga.zip", strings.NewReader("abc"), 3))
	assert.Error(t, v.GetArchive("a/b.zip", &bytes.Buffer{}))
}

func TestS3Vault_GetArchive_NotFound(t *testing.T) {
	v := newS3Vault("remote", "bucket", "", newFakeS3())

	err := v.GetArchive("missing.zip", &bytes.Buffer{})
	assert.True(t, errors.Is(err, ErrArchiveNotFound), "got %v", err)
}

func TestS3Vault_ListArchives(t *testing.T) {
	fake := newFakeS3()
	v := newS3Vault("remote", "bucket", "lb", fake)

	require.NoError(t, v.PutArchive("b.zip", strings.NewReader("1"), 1))
	require.NoError(t, v.PutArchive("a.zip", strings.NewReader("2"), 1))
	fake.objects["lb/archives/nested/c.zip"] = []byte("ignored")
	fake.objects["other/d.zip"] = []byte("ignored")

	names, err := v.ListArchives()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.zip", "b.zip"}, names)
}

func TestS3Vault_ValidateSetup(t *testing.T) {
	fake := newFakeS3()
	v := newS3Vault("remote", "bucket", "", fake)
	assert.NoError(t, v.ValidateSetup())

	fake.bucketError = errors.New("forbidden")
	assert.Error(t, v.ValidateSetup())
}
