package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gotd/td/session"
)

// FileSessionStorage implements session.Storage over one JSON file per
// account, laid out as <dir>/<user_id>/session_<phone>.json.
type FileSessionStorage struct {
	filePath string
}

// NewFileSessionStorage creates a new file-based session storage
func NewFileSessionStorage(sessionDir string, userID int64, phone string) (*FileSessionStorage, error) {
	userDir := filepath.Join(sessionDir, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(userDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	fileName := fmt.Sprintf("session_%s.json", phone)

	return &FileSessionStorage{
		filePath: filepath.Join(userDir, fileName),
	}, nil
}

// LoadSession loads session data from file
func (s *FileSessionStorage) LoadSession(_ context.Context) ([]byte, error) {
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		return nil, session.ErrNotFound
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if len(data) == 0 {
		return nil, session.ErrNotFound
	}

	return data, nil
}

// StoreSession stores session data to file
func (s *FileSessionStorage) StoreSession(_ context.Context, data []byte) error {
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Exists reports whether a stored session is present on disk.
func (s *FileSessionStorage) Exists() bool {
	info, err := os.Stat(s.filePath)
	return err == nil && info.Size() > 0
}

// Path returns the session file location.
func (s *FileSessionStorage) Path() string {
	return s.filePath
}
