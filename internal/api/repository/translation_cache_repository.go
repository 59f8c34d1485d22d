package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// TranslationCacheRepository is a persistent map from "<lang>::<text>" to a translation.
type TranslationCacheRepository interface {
	Get(ctx context.Context, lang, text string) (string, bool, error)
	Set(ctx context.Context, lang, text, translation string) error
}

// TranslationKey builds the cache key for a text in a language.
func TranslationKey(lang, text string) string {
	return lang + "::" + text
}

// NewFileTranslationCache stores translations in a JSON object on disk.
// The file and its directory are created on first write.
func NewFileTranslationCache(path string) TranslationCacheRepository {
	return &fileTranslationCache{path: path}
}

type fileTranslationCache struct {
	path    string
	mu      sync.RWMutex
	entries map[string]string
	loaded  bool
}

func (c *fileTranslationCache) load() error {
	if c.loaded {
		return nil
	}
	c.entries = map[string]string{}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		c.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read translation cache: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c.entries); err != nil {
			return fmt.Errorf("failed to parse translation cache: %w", err)
		}
	}
	c.loaded = true
	return nil
}

func (c *fileTranslationCache) Get(_ context.Context, lang, text string) (string, bool, error) {
	c.mu.RLock()
	if c.loaded {
		v, ok := c.entries[TranslationKey(lang, text)]
		c.mu.RUnlock()
		return v, ok && v != "", nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return "", false, err
	}
	v, ok := c.entries[TranslationKey(lang, text)]
	return v, ok && v != "", nil
}

func (c *fileTranslationCache) Set(_ context.Context, lang, text, translation string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return err
	}
	c.entries[TranslationKey(lang, text)] = translation
	return c.flush()
}

// flush writes through a temp file and rename so readers never see a partial file.
func (c *fileTranslationCache) flush() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode translation cache: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".titleTranslations-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache: %w", err)
	}
	return nil
}
