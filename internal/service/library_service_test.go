package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunescope/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/logger"
	"github.com/tejashwikalptaru/tunescope/internal/testutil"
)

// Helper to create a test library service
func newTestLibraryService(staticDir, rootDir string) (*LibraryService, *eventbus.SyncEventBus) {
	testLogger := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(testLogger)
	return NewLibraryService(testLogger, bus, staticDir, rootDir), bus
}

// Helper to create a music folder with the given files
func createTestMusicFolder(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, file := range files {
		full := filepath.Join(dir, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, nil, 0o644))
	}
	return dir
}

func TestIsFormatSupported(t *testing.T) {
	assert.True(t, IsFormatSupported("song.mp3"))
	assert.True(t, IsFormatSupported("track.flac"))
	assert.True(t, IsFormatSupported("music.wav"))
	assert.True(t, IsFormatSupported("music.ogg"))
	assert.True(t, IsFormatSupported("music.m4a"))
	assert.True(t, IsFormatSupported("/path/to/song.MP3")) // Case-insensitive

	assert.False(t, IsFormatSupported("readme.txt"))
	assert.False(t, IsFormatSupported("video.mp4"))
	assert.False(t, IsFormatSupported("noext"))
}

func TestSupportedFormats_ReturnsCopy(t *testing.T) {
	formats := SupportedFormats()
	assert.Equal(t, []string{".mp3", ".wav", ".ogg", ".m4a", ".flac"}, formats)

	formats[0] = ".xyz"
	assert.Equal(t, ".mp3", SupportedFormats()[0])
}

func TestListDir_FiltersByExtension(t *testing.T) {
	dir := createTestMusicFolder(t, "a.mp3", "b.txt")

	got := ListDir(dir, func(name string) string { return "/x/" + name })
	assert.Equal(t, []domain.TrackEntry{{Name: "a.mp3", URL: "/x/a.mp3"}}, got)
}

func TestListDir_SkipsDirectoriesAndNested(t *testing.T) {
	dir := createTestMusicFolder(t, "Loud.WAV", "sub/nested.mp3", "c.flac")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.mp3"), 0o755))

	got := ListDir(dir, func(name string) string { return name })
	names := make([]string, 0, len(got))
	for _, e := range got {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"Loud.WAV", "c.flac"}, names)
}

func TestListDir_MissingDirectory(t *testing.T) {
	got := ListDir(filepath.Join(t.TempDir(), "missing"), StaticURL)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListDir_FileInsteadOfDirectory(t *testing.T) {
	dir := createTestMusicFolder(t, "a.mp3")
	got := ListDir(filepath.Join(dir, "a.mp3"), StaticURL)
	assert.Empty(t, got)
}

func TestLibraryService_ListOrder(t *testing.T) {
	staticDir := createTestMusicFolder(t, "s1.mp3")
	rootDir := createTestMusicFolder(t, "r1.ogg", "notes.md")

	service, _ := newTestLibraryService(staticDir, rootDir)
	defer service.Shutdown()

	got := service.List()
	require.Len(t, got, 2)
	assert.Equal(t, domain.TrackEntry{Name: "s1.mp3", URL: "/music-dir/s1.mp3"}, got[0])
	assert.Equal(t, "r1.ogg", got[1].Name)
	assert.Equal(t, FSURL(filepath.Join(rootDir, "r1.ogg")), got[1].URL)
	assert.Contains(t, got[1].URL, "/@fs/")
}

func TestLibraryService_ListEmpty(t *testing.T) {
	service, _ := newTestLibraryService("", filepath.Join(t.TempDir(), "nope"))
	defer service.Shutdown()

	got := service.List()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStaticURL_Escapes(t *testing.T) {
	assert.Equal(t, "/music-dir/my%20song.mp3", StaticURL("my song.mp3"))
}

func TestLibraryService_ResolveURL(t *testing.T) {
	staticDir := createTestMusicFolder(t, "a b.mp3")
	rootDir := createTestMusicFolder(t, "r.wav")

	service, _ := newTestLibraryService(staticDir, rootDir)
	defer service.Shutdown()

	for _, e := range service.List() {
		p, err := service.ResolveURL(e.URL)
		require.NoError(t, err, e.URL)
		_, statErr := os.Stat(p)
		assert.NoError(t, statErr, p)
	}
}

func TestLibraryService_ResolveURL_Rejects(t *testing.T) {
	staticDir := createTestMusicFolder(t, "a.mp3")
	rootDir := createTestMusicFolder(t, "r.wav")

	service, _ := newTestLibraryService(staticDir, rootDir)
	defer service.Shutdown()

	// Dot segments cannot climb out of the directory.
	p, err := service.ResolveURL("/music-dir/../a.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(staticDir, "a.mp3"), p)

	for _, u := range []string{
		"/music-dir/",
		"/@fs/etc/passwd",
		"/elsewhere/a.mp3",
		"http://example.com/a.mp3",
	} {
		_, err := service.ResolveURL(u)
		assert.ErrorIs(t, err, domain.ErrFileNotFound, u)
	}
}

func TestLibraryService_SetDirs(t *testing.T) {
	first := createTestMusicFolder(t, "one.mp3")
	second := createTestMusicFolder(t, "two.mp3", "three.mp3")

	service, _ := newTestLibraryService(first, "")
	defer service.Shutdown()
	assert.Len(t, service.List(), 1)

	service.SetDirs(second, "")
	assert.Len(t, service.List(), 2)

	staticDir, rootDir := service.Dirs()
	assert.Equal(t, second, staticDir)
	assert.Empty(t, rootDir)
}

func TestLibraryService_WatchPublishesChanges(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	dir := createTestMusicFolder(t)
	service, bus := newTestLibraryService(dir, "")

	changed := make(chan domain.LibraryChangedEvent, 16)
	bus.Subscribe(domain.EventLibraryChanged, func(e domain.Event) {
		changed <- e.(domain.LibraryChangedEvent)
	})

	require.NoError(t, service.Watch(context.Background()))

	// Non-audio files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.mp3"), []byte("x"), 0o644))

	select {
	case e := <-changed:
		assert.Equal(t, filepath.Join(dir, "new.mp3"), e.Path)
		assert.Equal(t, dir, e.Dir)
	case <-time.After(5 * time.Second):
		t.Fatal("no library change published")
	}

	require.NoError(t, service.Shutdown())
	require.NoError(t, service.Shutdown())
}

func TestLibraryService_WatchTwice(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, _ := newTestLibraryService(createTestMusicFolder(t), "")
	require.NoError(t, service.Watch(context.Background()))

	err := service.Watch(context.Background())
	var serviceErr *domain.ServiceError
	assert.ErrorAs(t, err, &serviceErr)

	require.NoError(t, service.Shutdown())
}

func TestLibraryService_WatchStopsOnContextCancel(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	service, _ := newTestLibraryService(filepath.Join(t.TempDir(), "missing"), "")

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, service.Watch(ctx), "missing directories are skipped")
	cancel()

	require.NoError(t, service.Shutdown())
}
