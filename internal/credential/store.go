package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// UserKeyName is the settings entry holding the user-provided key.
const UserKeyName = "user_gemini_api_key"

const settingsFile = "settings.yaml"

// FileKeyStore keeps the user key in a YAML settings file readable only by
// the owner. Other entries in the file are preserved.
type FileKeyStore struct {
	path string
	mu   sync.Mutex
}

// NewFileKeyStore stores settings under dir.
func NewFileKeyStore(dir string) *FileKeyStore {
	return &FileKeyStore{path: filepath.Join(dir, settingsFile)}
}

// Path returns the settings file location.
func (s *FileKeyStore) Path() string {
	return s.path
}

func (s *FileKeyStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.read()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(settings[UserKeyName]), nil
}

func (s *FileKeyStore) Save(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.read()
	if err != nil {
		return err
	}
	settings[UserKeyName] = key
	return s.write(settings)
}

func (s *FileKeyStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := settings[UserKeyName]; !ok {
		return nil
	}
	delete(settings, UserKeyName)
	return s.write(settings)
}

func (s *FileKeyStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credential: read settings: %w", err)
	}
	settings := map[string]string{}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("credential: decode settings: %w", err)
	}
	return settings, nil
}

func (s *FileKeyStore) write(settings map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("credential: ensure settings dir: %w", err)
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("credential: encode settings: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("credential: write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("credential: replace settings: %w", err)
	}
	return nil
}

// MemoryKeyStore is an in-process KeyStore.
type MemoryKeyStore struct {
	mu  sync.Mutex
	key string
}

func (m *MemoryKeyStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key, nil
}

func (m *MemoryKeyStore) Save(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = key
	return nil
}

func (m *MemoryKeyStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = ""
	return nil
}

var (
	_ KeyStore = (*FileKeyStore)(nil)
	_ KeyStore = (*MemoryKeyStore)(nil)
)
