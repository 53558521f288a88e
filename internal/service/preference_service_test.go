package service

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunescope/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/logger"
)

// mockPreferencesRepository is a simple in-memory implementation for testing.
type mockPreferencesRepository struct {
	volume    float64
	loop      bool
	maxDPR    float64
	hasMaxDPR bool
	staticDir string
	rootDir   string

	loadDirsErr error
	saveCalls   int
	mu          sync.Mutex
}

func newMockPreferencesRepository() *mockPreferencesRepository {
	return &mockPreferencesRepository{volume: domain.DefaultVolume}
}

func (m *mockPreferencesRepository) SaveVolume(volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
	m.saveCalls++
	return nil
}

func (m *mockPreferencesRepository) LoadVolume() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume, nil
}

func (m *mockPreferencesRepository) SaveLoopMode(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loop = enabled
	m.saveCalls++
	return nil
}

func (m *mockPreferencesRepository) LoadLoopMode() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop, nil
}

func (m *mockPreferencesRepository) SaveMaxDPR(dpr float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if math.IsNaN(dpr) {
		m.maxDPR, m.hasMaxDPR = 0, false
	} else {
		m.maxDPR, m.hasMaxDPR = dpr, true
	}
	m.saveCalls++
	return nil
}

func (m *mockPreferencesRepository) LoadMaxDPR() (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxDPR, m.hasMaxDPR, nil
}

func (m *mockPreferencesRepository) SaveMusicDirs(staticDir, rootDir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staticDir, m.rootDir = staticDir, rootDir
	m.saveCalls++
	return nil
}

func (m *mockPreferencesRepository) LoadMusicDirs() (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadDirsErr != nil {
		return "", "", m.loadDirsErr
	}
	return m.staticDir, m.rootDir, nil
}

func (m *mockPreferencesRepository) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = domain.DefaultVolume
	m.loop = false
	m.maxDPR, m.hasMaxDPR = 0, false
	m.staticDir, m.rootDir = "", ""
	return nil
}

func prefTestLogger() *slog.Logger {
	return logger.NewTestLogger()
}

func newTestPreferenceService() (*PreferenceService, *mockPreferencesRepository, *eventbus.SyncEventBus) {
	repo := newMockPreferencesRepository()
	bus := eventbus.NewSyncEventBus(prefTestLogger())
	service := NewPreferenceService(prefTestLogger(), repo, bus)
	return service, repo, bus
}

func TestPreferenceService_GetVolume_Default(t *testing.T) {
	service, _, _ := newTestPreferenceService()
	defer service.Shutdown()

	assert.Equal(t, domain.DefaultVolume, service.GetVolume())
}

func TestPreferenceService_SetVolume(t *testing.T) {
	service, repo, _ := newTestPreferenceService()
	defer service.Shutdown()

	require.NoError(t, service.SetVolume(0.75))

	assert.Equal(t, 0.75, service.GetVolume())
	assert.Equal(t, 0.75, repo.volume)
}

func TestPreferenceService_SetVolume_InvalidRange(t *testing.T) {
	service, _, _ := newTestPreferenceService()
	defer service.Shutdown()

	for _, v := range []float64{-0.1, 1.1, math.NaN()} {
		err := service.SetVolume(v)
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "volume", validationErr.Field)
	}

	assert.Equal(t, domain.DefaultVolume, service.GetVolume(), "volume should be unchanged")
}

func TestPreferenceService_SetVolume_BoundaryValues(t *testing.T) {
	service, _, _ := newTestPreferenceService()
	defer service.Shutdown()

	require.NoError(t, service.SetVolume(0.0))
	assert.Equal(t, 0.0, service.GetVolume())

	require.NoError(t, service.SetVolume(1.0))
	assert.Equal(t, 1.0, service.GetVolume())
}

func TestPreferenceService_SetLoopMode(t *testing.T) {
	service, repo, _ := newTestPreferenceService()
	defer service.Shutdown()

	assert.False(t, service.GetLoopMode())

	require.NoError(t, service.SetLoopMode(true))
	assert.True(t, service.GetLoopMode())
	assert.True(t, repo.loop)

	require.NoError(t, service.SetLoopMode(false))
	assert.False(t, service.GetLoopMode())
}

func TestPreferenceService_MaxDPR(t *testing.T) {
	service, repo, _ := newTestPreferenceService()
	defer service.Shutdown()

	_, ok := service.GetMaxDPR()
	assert.False(t, ok)

	require.NoError(t, service.SetMaxDPR(1.5))
	dpr, ok := service.GetMaxDPR()
	assert.True(t, ok)
	assert.Equal(t, 1.5, dpr)
	assert.True(t, repo.hasMaxDPR)

	require.NoError(t, service.ClearMaxDPR())
	_, ok = service.GetMaxDPR()
	assert.False(t, ok)
	assert.False(t, repo.hasMaxDPR)
}

func TestPreferenceService_SetMaxDPR_Invalid(t *testing.T) {
	service, repo, _ := newTestPreferenceService()
	defer service.Shutdown()

	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		var validationErr *domain.ValidationError
		assert.ErrorAs(t, service.SetMaxDPR(v), &validationErr, "%v", v)
	}
	assert.Zero(t, repo.saveCalls)
}

func TestPreferenceService_MusicDirs(t *testing.T) {
	service, repo, _ := newTestPreferenceService()
	defer service.Shutdown()

	require.NoError(t, service.SetMusicDirs("/srv/static", "/srv/music"))

	staticDir, rootDir := service.GetMusicDirs()
	assert.Equal(t, "/srv/static", staticDir)
	assert.Equal(t, "/srv/music", rootDir)
	assert.Equal(t, "/srv/music", repo.rootDir)
}

func TestPreferenceService_CorruptMusicDirsIgnored(t *testing.T) {
	repo := newMockPreferencesRepository()
	repo.loadDirsErr = errors.New("corrupt")
	repo.volume = 0.2

	bus := eventbus.NewSyncEventBus(prefTestLogger())
	service := NewPreferenceService(prefTestLogger(), repo, bus)
	defer service.Shutdown()

	staticDir, rootDir := service.GetMusicDirs()
	assert.Empty(t, staticDir)
	assert.Empty(t, rootDir)
	assert.Equal(t, 0.2, service.GetVolume(), "other preferences still load")
}

func TestPreferenceService_PersistsBusEvents(t *testing.T) {
	service, repo, bus := newTestPreferenceService()

	bus.Publish(domain.NewVolumeChangedEvent(0.4))
	bus.Publish(domain.NewLoopToggledEvent(true))

	assert.Equal(t, 0.4, service.GetVolume())
	assert.True(t, service.GetLoopMode())
	assert.Equal(t, 0.4, repo.volume)
	assert.True(t, repo.loop)

	require.NoError(t, service.Shutdown())

	bus.Publish(domain.NewVolumeChangedEvent(0.9))
	assert.Equal(t, 0.4, service.GetVolume(), "no persistence after shutdown")
	assert.False(t, bus.HasSubscribers(domain.EventVolumeChanged))
}

func TestPreferenceService_ResetToDefaults(t *testing.T) {
	service, repo, _ := newTestPreferenceService()
	defer service.Shutdown()

	require.NoError(t, service.SetVolume(0.3))
	require.NoError(t, service.SetLoopMode(true))
	require.NoError(t, service.SetMaxDPR(1))
	require.NoError(t, service.SetMusicDirs("a", "b"))

	require.NoError(t, service.ResetToDefaults())

	assert.Equal(t, domain.DefaultVolume, service.GetVolume())
	assert.False(t, service.GetLoopMode())
	_, ok := service.GetMaxDPR()
	assert.False(t, ok)
	staticDir, rootDir := service.GetMusicDirs()
	assert.Empty(t, staticDir)
	assert.Empty(t, rootDir)
	assert.Empty(t, repo.rootDir)
}

func TestPreferenceService_GetAllPreferences(t *testing.T) {
	service, _, _ := newTestPreferenceService()
	defer service.Shutdown()

	require.NoError(t, service.SetVolume(0.6))
	require.NoError(t, service.SetLoopMode(true))

	prefs := service.GetAllPreferences()
	assert.Equal(t, 0.6, prefs["volume"])
	assert.Equal(t, true, prefs["loop"])
	assert.NotContains(t, prefs, "max_dpr")

	require.NoError(t, service.SetMaxDPR(2))
	assert.Equal(t, 2.0, service.GetAllPreferences()["max_dpr"])
}

func TestPreferenceService_Persistence(t *testing.T) {
	repo := newMockPreferencesRepository()
	bus := eventbus.NewSyncEventBus(prefTestLogger())

	service1 := NewPreferenceService(prefTestLogger(), repo, bus)
	require.NoError(t, service1.SetVolume(0.8))
	require.NoError(t, service1.SetMaxDPR(1.25))
	require.NoError(t, service1.Shutdown())

	service2 := NewPreferenceService(prefTestLogger(), repo, bus)
	defer service2.Shutdown()

	assert.Equal(t, 0.8, service2.GetVolume())
	dpr, ok := service2.GetMaxDPR()
	assert.True(t, ok)
	assert.Equal(t, 1.25, dpr)
}

func TestPreferenceService_ConcurrentMixedOperations(t *testing.T) {
	service, _, _ := newTestPreferenceService()
	defer service.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = service.SetVolume(float64(i%10) / 10)
			_ = service.SetLoopMode(i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = service.GetVolume()
			_ = service.GetAllPreferences()
		}()
	}
	wg.Wait()

	v := service.GetVolume()
	assert.True(t, v >= 0 && v <= 1)
}
