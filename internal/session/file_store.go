package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Keys held by the persisted session, mirroring the browser's storage.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

var (
	ErrNoUser      = errors.New("no user stored in session")
	ErrNoToken     = errors.New("no token stored in session")
	ErrUserInvalid = errors.New("stored user is not valid")
)

// FileStore is a persisted string key-value store on disk. The "user" key
// holds a JSON object with at least an "_id"; "token" holds the bearer token.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file need not exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is ~/.notes-upload/session.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".notes-upload", "session.json"), nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Get returns the value for key and whether it was present.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	data[key] = value
	return s.save(data)
}

// Clear removes every key.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SetUser stores a user object with the given id and optional extra fields.
func (s *FileStore) SetUser(id string, extra map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty id", ErrUserInvalid)
	}
	user := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		user[k] = v
	}
	user["_id"] = id
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.Set(KeyUser, string(raw))
}

// CurrentUserID reads the "_id" of the stored user.
func (s *FileStore) CurrentUserID() (string, error) {
	raw, ok, err := s.Get(KeyUser)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return "", ErrNoUser
	}
	return userIDFromJSON(raw)
}

// AuthToken returns the stored bearer token.
func (s *FileStore) AuthToken() (string, error) {
	tok, ok, err := s.Get(KeyToken)
	if err != nil {
		return "", err
	}
	tok = strings.TrimSpace(tok)
	if !ok || tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

func userIDFromJSON(raw string) (string, error) {
	var user struct {
		ID any `json:"_id"`
	}
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUserInvalid, err)
	}
	id, ok := user.ID.(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: missing _id", ErrUserInvalid)
	}
	return id, nil
}

func (s *FileStore) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", s.path, err)
	}
	data := map[string]string{}
	if len(strings.TrimSpace(string(b))) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("%w: session file %s: %v", ErrUserInvalid, s.path, err)
	}
	return data, nil
}

func (s *FileStore) save(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
