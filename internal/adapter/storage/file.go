package storage

import (
	"os"
	"strings"

	"github.com/nickwest/sunchaser/internal/core/port"

	"go.uber.org/zap"
)

// FileStateStore keeps the encoded alignment record in a plain text
// file. A missing file reads as empty state, not an error.
type FileStateStore struct {
	path   string
	logger *zap.Logger
}

func NewFileStateStore(path string, logger *zap.Logger) *FileStateStore {
	return &FileStateStore{
		path:   path,
		logger: logger.With(zap.String("store", "file"), zap.String("path", path)),
	}
}

func (s *FileStateStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStateStore) Save(encoded string) error {
	s.logger.Debug("persist state", zap.String("value", encoded))
	return os.WriteFile(s.path, []byte(encoded+"\n"), 0o644)
}

func (s *FileStateStore) Close() error {
	return nil
}

// ensure interface compliance
var _ port.AlignmentStateStore = (*FileStateStore)(nil)
