package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tejashwikalptaru/tunescope/internal/app"
)

func TestMusicDirs_Apply(t *testing.T) {
	config := app.Config{StaticMusicDir: "music", MusicDir: "/env/music"}

	musicDirs{}.apply(&config)
	assert.Equal(t, "music", config.StaticMusicDir, "empty flags keep the defaults")
	assert.Equal(t, "/env/music", config.MusicDir)

	musicDirs{"/flag/static", "/flag/music"}.apply(&config)
	assert.Equal(t, "/flag/static", config.StaticMusicDir)
	assert.Equal(t, "/flag/music", config.MusicDir)
}

func TestDesktopConfig(t *testing.T) {
	t.Setenv(app.EnvAddr, "")
	t.Setenv(app.EnvMaxDPR, "")

	config := desktopConfig(&DesktopParams{StaticDir: "/static", Addr: ":7000", MaxDPR: 1.5})
	assert.Equal(t, "/static", config.StaticMusicDir)
	assert.Equal(t, ":7000", config.Addr)
	assert.Equal(t, 1.5, config.MaxDPR)

	config = desktopConfig(&DesktopParams{Addr: ":7000", NoServer: true})
	assert.Empty(t, config.Addr, "no-server wins over an address")
	assert.True(t, math.IsNaN(config.MaxDPR), "zero keeps the saved cap")
}
