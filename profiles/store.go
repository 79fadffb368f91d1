// Package profiles stores connection profiles keyed by the WiFi network or room they are bound to.
package profiles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"nmprofiles/profilemenu"
)

// DefaultPort is the port used when a profile leaves it unset.
const DefaultPort = 6600

// Profile is the connection configuration bound to one target.
type Profile struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port,omitempty"`
	Password  string `yaml:"password,omitempty"`
	StreamURL string `yaml:"stream_url,omitempty"`
	MusicPath string `yaml:"music_path,omitempty"`
}

// Validate checks the fields a connection cannot do without.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Host) == "" {
		return errors.New("host cannot be empty")
	}
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("port %d out of range", p.Port)
	}
	return nil
}

// Address returns host:port, applying DefaultPort.
func (p Profile) Address() string {
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}
	return p.Host + ":" + strconv.Itoa(port)
}

type fileFormat struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Store is a YAML file of profiles. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	path     string
	profiles map[string]Profile
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, profiles: make(map[string]Profile)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	for k, p := range f.Profiles {
		s.profiles[k] = p
	}
	return s, nil
}

// Get returns the profile bound to target.
func (s *Store) Get(target profilemenu.Target) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[target.String()]
	return p, ok
}

// Put binds p to target and saves the store.
func (s *Store) Put(target profilemenu.Target, p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cloneLocked()
	next[target.String()] = p
	return s.commitLocked(next)
}

// Delete removes the profile bound to target and saves the store.
func (s *Store) Delete(target profilemenu.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[target.String()]; !ok {
		return nil
	}
	next := s.cloneLocked()
	delete(next, target.String())
	return s.commitLocked(next)
}

// Keys returns the stored target keys, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.profiles))
	for k := range s.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) cloneLocked() map[string]Profile {
	next := make(map[string]Profile, len(s.profiles)+1)
	for k, p := range s.profiles {
		next[k] = p
	}
	return next
}

// commitLocked writes next to disk and only then makes it the in-memory state.
func (s *Store) commitLocked(next map[string]Profile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create profiles dir: %w", err)
	}
	data, err := yaml.Marshal(fileFormat{Profiles: next})
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	// Profiles can carry passwords.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	s.profiles = next
	return nil
}
