package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marketingreboot/reboot-api/internal/models"
	"golang.org/x/oauth2"
)

var ErrNoCachedSession = errors.New("no cached session")

type Cached struct {
	Token    *oauth2.Token    `json:"token"`
	Identity *models.Identity `json:"identity"`
}

type TokenCache interface {
	Load() (*Cached, error)
	Save(c *Cached) error
	Clear() error
}

// FileCache keeps the session as JSON in a single user-only file.
type FileCache struct {
	Path string
}

func NewFileCache(path string) *FileCache {
	return &FileCache{Path: path}
}

// DefaultCachePath is ~/.config/reboot/session.json or the platform
// equivalent.
func DefaultCachePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "reboot", "session.json"), nil
}

func (f *FileCache) Load() (*Cached, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCachedSession
	}
	if err != nil {
		return nil, err
	}

	var cached Cached
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to decode session cache: %w", err)
	}
	if cached.Token == nil || cached.Identity == nil {
		return nil, ErrNoCachedSession
	}
	return &cached, nil
}

func (f *FileCache) Save(c *Cached) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

func (f *FileCache) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
