package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jjudge-oj/grader/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	objects map[string]Object
	data    map[string][]byte
	putErr  error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{objects: map[string]Object{}, data: map[string][]byte{}}
}

func (m *memoryBackend) EnsureBucket(ctx context.Context) error { return nil }

func (m *memoryBackend) Put(ctx context.Context, obj Object) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return err
	}
	m.objects[obj.Key] = obj
	m.data[obj.Key] = data
	return nil
}

func (m *memoryBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBackend) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	delete(m.data, key)
	return nil
}

func (m *memoryBackend) Bucket() string { return "memory" }

func TestSourceKey(t *testing.T) {
	key := SourceKey(types.Submission{ID: 42, ContestID: 3, Language: types.LanguagePython})
	assert.Equal(t, "submissions/3/42.py.zst", key)
}

func TestSourceArchiveRoundTrip(t *testing.T) {
	backend := newMemoryBackend()
	archive, err := NewSourceArchive(backend)
	require.NoError(t, err)
	defer archive.Close()

	code := strings.Repeat("print(int(input()) * 2)\n", 200)
	sub := types.Submission{ID: 9, ContestID: 1, UserID: 5, Language: types.LanguagePython, Code: code}

	key, err := archive.Archive(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "submissions/1/9.py.zst", key)

	stored := backend.objects[key]
	assert.Equal(t, "zstd", stored.ContentEncoding)
	assert.Equal(t, "python", stored.Metadata["language"])
	assert.Equal(t, "5", stored.Metadata["user-id"])
	assert.Less(t, len(backend.data[key]), len(code))

	loaded, err := archive.Load(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, code, loaded)
}

func TestSourceArchivePutFailure(t *testing.T) {
	backend := newMemoryBackend()
	backend.putErr = errors.New("bucket unreachable")
	archive, err := NewSourceArchive(backend)
	require.NoError(t, err)
	defer archive.Close()

	_, err = archive.Archive(context.Background(), types.Submission{ID: 1, Language: types.LanguageC})
	assert.ErrorContains(t, err, "bucket unreachable")
}
