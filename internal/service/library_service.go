package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// URL prefixes of catalog entries.
const (
	StaticPrefix = "/music-dir/"
	FSPrefix     = "/@fs/"
)

var supportedExts = []string{".mp3", ".wav", ".ogg", ".m4a", ".flac"}

// IsFormatSupported checks the file extension, ignoring case.
func IsFormatSupported(filePath string) bool {
	return lo.Contains(supportedExts, strings.ToLower(filepath.Ext(filePath)))
}

// SupportedFormats returns the listed file extensions.
func SupportedFormats() []string {
	return append([]string(nil), supportedExts...)
}

// ListDir returns the regular audio files directly inside dir, named by
// toURL. A missing or unreadable directory yields an empty list.
func ListDir(dir string, toURL func(name string) string) []domain.TrackEntry {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []domain.TrackEntry{}
	}

	files := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return e.Type().IsRegular() && IsFormatSupported(e.Name())
	})
	return lo.Map(files, func(e os.DirEntry, _ int) domain.TrackEntry {
		return domain.TrackEntry{Name: e.Name(), URL: toURL(e.Name())}
	})
}

// LibraryService lists the tracks of two music directories: a static one
// served under /music-dir/ and a project-level one served under /@fs/.
// It can watch both directories and publish LibraryChangedEvent.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger *slog.Logger
	bus    ports.EventBus

	mu        sync.RWMutex
	staticDir string
	rootDir   string

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewLibraryService creates a library over the two directories.
// rootDir is made absolute so its /@fs/ URLs are stable.
func NewLibraryService(logger *slog.Logger, bus ports.EventBus, staticDir, rootDir string) *LibraryService {
	s := &LibraryService{
		logger: logger.With(slog.String("component", "library")),
		bus:    bus,
	}
	s.SetDirs(staticDir, rootDir)
	return s
}

// SetDirs replaces the music directories. A running watcher keeps watching the old ones.
func (s *LibraryService) SetDirs(staticDir, rootDir string) {
	if rootDir != "" {
		if abs, err := filepath.Abs(rootDir); err == nil {
			rootDir = abs
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staticDir, s.rootDir = staticDir, rootDir
}

// Dirs returns the static and project-level music directories.
func (s *LibraryService) Dirs() (staticDir, rootDir string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.staticDir, s.rootDir
}

// List returns the static directory's tracks followed by the project-level ones.
// The result is never nil.
func (s *LibraryService) List() []domain.TrackEntry {
	staticDir, rootDir := s.Dirs()

	var tracks []domain.TrackEntry
	if staticDir != "" {
		tracks = append(tracks, ListDir(staticDir, StaticURL)...)
	}
	if rootDir != "" {
		tracks = append(tracks, ListDir(rootDir, func(name string) string {
			return FSURL(filepath.Join(rootDir, name))
		})...)
	}
	if tracks == nil {
		tracks = []domain.TrackEntry{}
	}
	return tracks
}

// StaticURL returns the /music-dir/ URL of a file in the static directory.
func StaticURL(name string) string {
	return StaticPrefix + url.PathEscape(name)
}

// FSURL returns the /@fs/ URL of an absolute path.
func FSURL(absPath string) string {
	segs := strings.Split(strings.TrimPrefix(filepath.ToSlash(absPath), "/"), "/")
	return FSPrefix + strings.Join(lo.Map(segs, func(s string, _ int) string {
		return url.PathEscape(s)
	}), "/")
}

// ResolveURL maps a catalog URL back to a file path. It fails for URLs
// outside both prefixes and for paths escaping their directory.
func (s *LibraryService) ResolveURL(u string) (string, error) {
	staticDir, rootDir := s.Dirs()

	p, err := url.PathUnescape(u)
	if err != nil {
		return "", domain.NewServiceError("LibraryService", "ResolveURL", "malformed URL", err)
	}

	switch {
	case strings.HasPrefix(p, StaticPrefix) && staticDir != "":
		name := path.Clean("/" + strings.TrimPrefix(p, StaticPrefix))
		return within(staticDir, filepath.Join(staticDir, filepath.FromSlash(name)))
	case strings.HasPrefix(p, FSPrefix) && rootDir != "":
		abs := filepath.FromSlash(path.Clean("/" + strings.TrimPrefix(p, FSPrefix)))
		if filepath.VolumeName(rootDir) != "" {
			abs = strings.TrimPrefix(abs, string(filepath.Separator))
		}
		return within(rootDir, abs)
	}
	return "", domain.NewServiceError("LibraryService", "ResolveURL", "not a library URL: "+u, domain.ErrFileNotFound)
}

func within(dir, p string) (string, error) {
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.NewServiceError("LibraryService", "ResolveURL", "path outside music directory", domain.ErrFileNotFound)
	}
	return p, nil
}

// Watch starts watching both directories until ctx is done or Shutdown is
// called. Missing directories are skipped.
func (s *LibraryService) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return domain.NewServiceError("LibraryService", "Watch", "failed to create watcher", err)
	}

	staticDir, rootDir := s.Dirs()
	dirs := lo.Uniq(lo.Compact([]string{staticDir, rootDir}))
	watched := 0
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			s.logger.Debug("not watching music directory", slog.String("dir", dir), slog.Any("error", err))
			continue
		}
		watched++
	}

	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		_ = watcher.Close()
		return domain.NewServiceError("LibraryService", "Watch", "already watching", nil)
	}
	ctx, cancel := context.WithCancel(ctx)
	s.watcher, s.cancel = watcher, cancel
	s.mu.Unlock()

	s.logger.Debug("watching music directories", slog.Int("count", watched))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watchLoop(ctx, watcher)
	}()
	return nil
}

func (s *LibraryService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !IsFormatSupported(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.logger.Debug("music directory changed",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()))
			s.bus.Publish(domain.NewLibraryChangedEvent(filepath.Dir(event.Name), event.Name))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

// Shutdown stops the watcher, if any, and waits for it to exit.
func (s *LibraryService) Shutdown() error {
	s.mu.Lock()
	watcher, cancel := s.watcher, s.cancel
	s.watcher, s.cancel = nil, nil
	s.mu.Unlock()

	if watcher == nil {
		return nil
	}
	cancel()
	s.wg.Wait()
	if err := watcher.Close(); err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}
	return nil
}
