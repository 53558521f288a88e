package beepaudio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tejashwikalptaru/tunescope/internal/blob"
	"github.com/tejashwikalptaru/tunescope/internal/domain"
)

// BlobResolver looks up in-memory files behind blob URLs.
type BlobResolver interface {
	Resolve(url string) (domain.FileHandle, error)
}

// fetch reads the complete file behind src.
// Supported forms: blob: URLs, http(s) URLs, file:// URLs and plain paths.
func (p *Platform) fetch(ctx context.Context, src string) (domain.FileHandle, error) {
	switch {
	case blob.IsBlobURL(src):
		if p.blobs == nil {
			return domain.FileHandle{}, domain.ErrBlobNotFound
		}
		return p.blobs.Resolve(src)

	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return p.fetchHTTP(ctx, src)

	case strings.HasPrefix(src, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return domain.FileHandle{}, fmt.Errorf("parse %s: %w", src, err)
		}
		return readFile(u.Path)
	}
	return readFile(src)
}

func (p *Platform) fetchHTTP(ctx context.Context, src string) (domain.FileHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return domain.FileHandle{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return domain.FileHandle{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.FileHandle{}, fmt.Errorf("GET %s: %s", src, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.FileHandle{}, fmt.Errorf("read %s: %w", src, err)
	}

	name := src
	if u, err := url.Parse(src); err == nil {
		name = path.Base(u.Path)
	}
	return domain.FileHandle{Name: name, Data: data}, nil
}

func readFile(p string) (domain.FileHandle, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return domain.FileHandle{}, err
	}
	return domain.FileHandle{Name: filepath.Base(p), Data: data}, nil
}
