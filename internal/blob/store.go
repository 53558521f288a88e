// Package blob keeps in-memory files reachable through temporary "blob:" URLs.
//
// A URL stays valid until it is revoked. Revoking releases the bytes; resolving a
// revoked URL fails with domain.ErrBlobNotFound.
package blob

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
)

// Scheme is the prefix of every URL created by a Store.
const Scheme = "blob:"

// Store maps blob URLs to in-memory files.
type Store struct {
	logger *slog.Logger

	mu      sync.Mutex
	files   map[string]domain.FileHandle
	revoked int
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger: logger.With(slog.String("component", "blob")),
		files:  make(map[string]domain.FileHandle),
	}
}

// IsBlobURL reports whether url uses the blob scheme.
func IsBlobURL(url string) bool {
	return strings.HasPrefix(url, Scheme)
}

// CreateObjectURL registers file and returns a fresh URL for it.
func (s *Store) CreateObjectURL(file domain.FileHandle) string {
	url := Scheme + uuid.NewString()

	s.mu.Lock()
	s.files[url] = file
	s.mu.Unlock()

	s.logger.Debug("blob url created",
		slog.String("url", url),
		slog.String("name", file.Name),
		slog.Int("bytes", len(file.Data)))
	return url
}

// Resolve returns the file behind url.
func (s *Store) Resolve(url string) (domain.FileHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[url]
	if !ok {
		return domain.FileHandle{}, domain.ErrBlobNotFound
	}
	return file, nil
}

// RevokeObjectURL releases url. Unknown URLs are ignored.
func (s *Store) RevokeObjectURL(url string) {
	s.mu.Lock()
	_, ok := s.files[url]
	if ok {
		delete(s.files, url)
		s.revoked++
	}
	s.mu.Unlock()

	if ok {
		s.logger.Debug("blob url revoked", slog.String("url", url))
	}
}

// Len returns the number of live URLs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Revoked returns how many URLs have been revoked over the store's lifetime.
func (s *Store) Revoked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked
}
