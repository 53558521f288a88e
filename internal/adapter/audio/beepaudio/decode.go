package beepaudio

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
)

// readSeekCloser gives an in-memory file the Close method decoders expect
// while keeping it seekable.
type readSeekCloser struct {
	*bytes.Reader
}

func (readSeekCloser) Close() error { return nil }

// formatOf picks the container format from the file extension,
// falling back to the magic bytes for URLs without one.
func formatOf(name string, data []byte) string {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".mp3", ".wav", ".flac", ".m4a":
		return ext
	case ".ogg", ".oga":
		return ".ogg"
	}

	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return ".wav"
	case bytes.HasPrefix(data, []byte("OggS")):
		return ".ogg"
	case bytes.HasPrefix(data, []byte("fLaC")):
		return ".flac"
	case bytes.HasPrefix(data, []byte("ID3")),
		len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return ".mp3"
	}
	return ""
}

// decode opens a seekable decoder for an in-memory file.
func decode(name string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	r := bytes.NewReader(data)

	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch f := formatOf(name, data); f {
	case ".mp3":
		s, format, err = mp3.Decode(readSeekCloser{r})
	case ".wav":
		s, format, err = wav.Decode(r)
	case ".ogg":
		s, format, err = vorbis.Decode(readSeekCloser{r})
	case ".flac":
		s, format, err = flac.Decode(r)
	default:
		// .m4a is listed by the catalog but no AAC decoder is available.
		return nil, beep.Format{}, fmt.Errorf("%s: %w", name, domain.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return s, format, nil
}

// readMetadata extracts tags from an in-memory file.
// Missing tags fall back to the file name as the title.
func readMetadata(source, name string, data []byte) domain.TrackInfo {
	info := domain.TrackInfo{
		Source: source,
		Title:  strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)),
	}

	metadata, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return info
	}
	if title := strings.TrimSpace(metadata.Title()); title != "" {
		info.Title = title
	}
	info.Artist = strings.TrimSpace(metadata.Artist())
	info.Album = strings.TrimSpace(metadata.Album())
	return info
}
