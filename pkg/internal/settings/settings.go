// Package settings persists the small per-machine application state: the
// last analog output channel and where the window was, keyed to the host it
// was saved on.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/joeydtaylor/makewaves/pkg/internal/utils"
)

// Settings is the persisted document. Key names match files written by
// earlier releases.
type Settings struct {
	Channel        string  `json:"AO physical channel,omitempty"`
	WindowLocation *[2]int `json:"Last window location,omitempty"`
	HostName       string  `json:"Last PC name,omitempty"`
}

// WindowFor returns the saved window location when it was recorded on host.
func (s Settings) WindowFor(host string) ([2]int, bool) {
	if s.WindowLocation == nil || s.HostName == "" || s.HostName != host {
		return [2]int{}, false
	}
	return *s.WindowLocation, true
}

// DefaultPath returns settings/app.json under dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, "settings", "app.json")
}

// Store reads and writes one settings file.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load returns the stored settings. A missing file yields zero Settings.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save replaces the stored settings.
func (s *Store) Save(v Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(v)
}

// Update applies fn to the stored settings and saves the result.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.load()
	if err != nil {
		return err
	}
	fn(&v)
	return s.save(v)
}

// RememberSession records the channel and window location for host.
func (s *Store) RememberSession(channel, host string, x, y int) error {
	return s.Update(func(v *Settings) {
		if channel != "" {
			v.Channel = channel
		}
		v.WindowLocation = &[2]int{x, y}
		v.HostName = host
	})
}

func (s *Store) load() (Settings, error) {
	var v Settings
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("settings: open %s: %w", s.path, err)
	}
	defer f.Close()
	if err := utils.DecodeJSON(f, &v); err != nil {
		return Settings{}, fmt.Errorf("settings: %s: %w", s.path, err)
	}
	return v, nil
}

func (s *Store) save(v Settings) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
