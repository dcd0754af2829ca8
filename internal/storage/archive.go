package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/jjudge-oj/grader/types"
	"github.com/klauspost/compress/zstd"
)

const maxSourceSize = 8 << 20

// SourceArchive keeps zstd-compressed copies of submitted source code.
type SourceArchive struct {
	backend ObjectStorage
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewSourceArchive wraps backend. The returned archive is safe for
// concurrent use.
func NewSourceArchive(backend ObjectStorage) (*SourceArchive, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxSourceSize))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &SourceArchive{backend: backend, encoder: encoder, decoder: decoder}, nil
}

// SourceKey is the object key of a submission's archived source.
func SourceKey(sub types.Submission) string {
	return fmt.Sprintf("submissions/%d/%d.%s.zst", sub.ContestID, sub.ID, sub.Language.Extension())
}

// Archive stores the submission code and returns its key.
func (a *SourceArchive) Archive(ctx context.Context, sub types.Submission) (string, error) {
	key := SourceKey(sub)
	compressed := a.encoder.EncodeAll([]byte(sub.Code), make([]byte, 0, len(sub.Code)/2+64))

	err := a.backend.Put(ctx, Object{
		Key:             key,
		Body:            bytes.NewReader(compressed),
		Size:            int64(len(compressed)),
		ContentType:     "text/plain; charset=utf-8",
		ContentEncoding: "zstd",
		Metadata: map[string]string{
			"submission-id": strconv.FormatInt(sub.ID, 10),
			"user-id":       strconv.Itoa(sub.UserID),
			"language":      sub.Language.String(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// Load reads back archived source code.
func (a *SourceArchive) Load(ctx context.Context, key string) (string, error) {
	rc, err := a.backend.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	compressed, err := io.ReadAll(io.LimitReader(rc, maxSourceSize))
	if err != nil {
		return "", err
	}
	code, err := a.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return "", fmt.Errorf("decompress %s: %w", key, err)
	}
	return string(code), nil
}

// Close releases the codec resources.
func (a *SourceArchive) Close() {
	a.encoder.Close()
	a.decoder.Close()
}
