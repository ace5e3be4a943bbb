// internal/state/cursor.go
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// cursorFile is the on-disk shape: a single string-encoded integer so the
// file stays editable by hand.
type cursorFile struct {
	UpdateMarker string `json:"updateMarker"`
}

// CursorStore persists the long-poll marker across restarts. A missing file
// and a corrupt one both read back as "absent" — absent and zero are distinct
// states, since a zero marker is a real position the platform can issue.
type CursorStore struct {
	path string
	mu   sync.Mutex
}

// NewCursorStore creates a CursorStore backed by the given file path.
func NewCursorStore(path string) *CursorStore {
	return &CursorStore{path: path}
}

// Path returns the file path used by this store.
func (s *CursorStore) Path() string {
	return s.path
}

// Load reads the persisted marker. The second return value is false when no
// usable marker exists: the file is missing, unreadable, or its contents do
// not parse. Corruption is logged and treated as absence, never as zero.
func (s *CursorStore) Load() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("cursor file unreadable, starting from the beginning", "path", s.path, "error", err)
		}
		return 0, false
	}

	var f cursorFile
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("cursor file corrupt, starting from the beginning", "path", s.path, "error", err)
		return 0, false
	}
	if f.UpdateMarker == "" {
		return 0, false
	}
	marker, err := strconv.ParseInt(f.UpdateMarker, 10, 64)
	if err != nil {
		slog.Warn("cursor value unparseable, starting from the beginning", "path", s.path, "value", f.UpdateMarker, "error", err)
		return 0, false
	}
	return marker, true
}

// Save writes the marker to disk using atomic write (temp file + rename).
// Errors are returned for the caller to log; the poller keeps its in-memory
// marker either way.
func (s *CursorStore) Save(marker int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cursorFile{UpdateMarker: strconv.FormatInt(marker, 10)}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cursor dir: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write cursor: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename cursor: %w", err)
	}
	return nil
}
