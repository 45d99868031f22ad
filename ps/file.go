package ps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore keeps the snapshot in a local file. Saves write a temporary file
// next to the target and rename it over, holding an advisory lock on
// "<path>.lock" so concurrent processes do not interleave.
type FileStore struct {
	path   string
	codec  Codec
	logger *zap.Logger
}

func NewFileStore(path string, opts Options) *FileStore {
	return &FileStore{
		path:   path,
		codec:  CodecFor(path),
		logger: opts.logger(),
	}
}

func (s *FileStore) Location() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}

	unlock, err := lockFile(s.path+".lock", false)
	if err != nil {
		return Snapshot{}, err
	}
	defer unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	snapshot, err := s.codec.Unmarshal(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", s.path, err)
	}
	s.logger.Debug("snapshot loaded", zap.String("path", s.path), zap.Int("bytes", len(data)))
	return snapshot, nil
}

func (s *FileStore) Save(ctx context.Context, snapshot Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.codec.Marshal(snapshot)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	unlock, err := lockFile(s.path+".lock", true)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	s.logger.Debug("snapshot saved", zap.String("path", s.path), zap.Int("bytes", len(data)))
	return nil
}
