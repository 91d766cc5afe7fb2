// Package filestore keeps the credential in a small JSON document on local
// disk, the durable per-user storage a desktop shell has instead of browser storage.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const fileMode = 0o600

// TokenStore stores the credential as one entry of a key/value JSON document.
// Other entries in the document are preserved.
type TokenStore struct {
	path string
	key  string
	mu   sync.Mutex
	// corrupt is set by load when the document on disk could not be decoded.
	corrupt bool
}

// New returns a store backed by path under key. The parent directory is created on first write.
func New(path, key string) (*TokenStore, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if key == "" {
		return nil, errors.New("storage key is required")
	}
	return &TokenStore{path: path, key: key}, nil
}

// Path returns the backing file location.
func (s *TokenStore) Path() string { return s.path }

// Get reads the document from disk on every call. A missing file means absent.
func (s *TokenStore) Get(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", false, err
	}
	token, ok := doc[s.key]
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Set stores token under the key, replacing an unreadable document.
func (s *TokenStore) Set(_ context.Context, token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc[s.key] = token
	return s.save(doc)
}

// Clear removes the credential. It is idempotent and discards an unreadable document.
func (s *TokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	_, ok := doc[s.key]
	if !ok && !s.corrupt {
		return nil
	}
	delete(doc, s.key)
	if len(doc) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove store file: %w", err)
		}
		s.corrupt = false
		return nil
	}
	return s.save(doc)
}

// load reads the document. An undecodable document reads as empty and is
// marked corrupt so the next Set or Clear replaces it.
func (s *TokenStore) load() (map[string]string, error) {
	s.corrupt = false
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	doc := map[string]string{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Default().Warn("discarding unreadable store file", "component", "filestore", "path", s.path, "error", err)
		s.corrupt = true
		return map[string]string{}, nil
	}
	return doc, nil
}

// save writes to a temp file in the same directory and renames it into place.
func (s *TokenStore) save(doc map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) error {
		_ = tmp.Close()
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return errors.Join(cause, rmErr)
		}
		return cause
	}

	if err := tmp.Chmod(fileMode); err != nil {
		return cleanup(fmt.Errorf("chmod temp file: %w", err))
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return cleanup(fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return cleanup(fmt.Errorf("replace store file: %w", err))
	}
	return nil
}
