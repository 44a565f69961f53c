package cache

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Persisted entries are JSON compressed with zstd. EncodeAll and DecodeAll
// are safe for concurrent use, so one encoder and decoder are shared.
var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func initCodec() error {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedFastest),
			zstd.WithEncoderConcurrency(1),
		)
		if codecErr != nil {
			codecErr = fmt.Errorf("zstd encoder: %w", codecErr)
			return
		}
		decoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if codecErr != nil {
			codecErr = fmt.Errorf("zstd decoder: %w", codecErr)
		}
	})
	return codecErr
}

func encodeEntry(entry *Entry) ([]byte, error) {
	if err := initCodec(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}
	return encoder.EncodeAll(data, nil), nil
}

func decodeEntry(data []byte) (*Entry, error) {
	if err := initCodec(); err != nil {
		return nil, err
	}
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("parse cache entry: %w", err)
	}
	if entry.Version != entryVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrSchema, entry.Version, entryVersion)
	}
	return &entry, nil
}
