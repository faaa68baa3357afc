package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "folder-a/file-1", strings.NewReader("hello"), 5, "text/plain"))

	rc, err := s.Open(ctx, "folder-a/file-1")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(ctx, "folder-a/file-1"))
	_, err = s.Open(ctx, "folder-a/file-1")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, "folder-a/file-1"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFSStore(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	err = s.Put(context.Background(), "../escape", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Open(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeS3 struct {
	objects  map[string][]byte
	seekable map[string]bool
	lengths  map[string]int64
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	if f.seekable != nil {
		_, f.seekable[*in.Key] = in.Body.(io.Seeker)
	}
	if f.lengths != nil && in.ContentLength != nil {
		f.lengths[*in.Key] = *in.ContentLength
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Store_WithFakeClient(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	s := NewS3StoreWithClient(fake, "bucket", "/files/")

	exerciseStore(t, s)

	require.NoError(t, s.Put(context.Background(), "k", strings.NewReader("v"), 1, ""))
	_, ok := fake.objects["files/k"]
	assert.True(t, ok, "key prefix applied")
}

func TestS3Store_PutStreamSendsSeekableBody(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, seekable: map[string]bool{}, lengths: map[string]int64{}}
	s := NewS3StoreWithClient(fake, "bucket", "")
	ctx := context.Background()

	var sum bytes.Buffer
	stream := io.TeeReader(strings.NewReader("streamed payload"), &sum)
	require.NoError(t, s.Put(ctx, "tee", stream, -1, "text/plain"))

	assert.True(t, fake.seekable["tee"])
	assert.Equal(t, int64(len("streamed payload")), fake.lengths["tee"])
	assert.Equal(t, []byte("streamed payload"), fake.objects["tee"])
	assert.Equal(t, "streamed payload", sum.String())

	require.NoError(t, s.Put(ctx, "bytes", bytes.NewReader([]byte("abc")), 3, ""))
	assert.True(t, fake.seekable["bytes"])
	assert.Equal(t, int64(3), fake.lengths["bytes"])
}
