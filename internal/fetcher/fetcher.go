// Package fetcher downloads remote images into a local content cache keyed by
// URL hash. Failure is signalled by the returned path not existing on disk,
// not by an error: callers stat the result instead of unwrapping errors.
package fetcher

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Fetcher downloads URLs into dir, memoized by URL. The cache has no eviction
// and no TTL; a file that exists is served as-is.
type Fetcher struct {
	dir    string
	client *http.Client
}

// New creates a Fetcher that stores downloads under dir.
func New(dir string) *Fetcher {
	return &Fetcher{
		dir:    dir,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch returns the local path for url, downloading it on a cache miss. The
// path is deterministic for a given URL. On any download failure the path is
// returned without a file behind it; the caller must check existence.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	path := filepath.Join(f.dir, hashName(url))
	if _, err := os.Stat(path); err == nil {
		slog.Debug("file already downloaded", "url", url, "path", path)
		return path
	}

	if err := f.download(ctx, url, path); err != nil {
		slog.Error("download failed", "url", url, "error", err)
		return path
	}
	slog.Info("downloaded file", "url", url, "path", path)
	return path
}

// download streams the URL into a temp file and renames it into place, so two
// concurrent fetches of the same new URL each produce a whole file and the
// rename decides the winner.
func (f *Fetcher) download(ctx context.Context, url, path string) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create downloads dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(f.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write body: %w", err)
	}
	if written == 0 {
		os.Remove(tmp.Name())
		return fmt.Errorf("empty body")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename download: %w", err)
	}
	return nil
}

func hashName(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:]) + ".jpg"
}
