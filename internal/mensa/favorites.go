package mensa

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Favorites tracks, per chat, whether the daily delivery job is active
// and which cafeterias it covers. A chat with an empty list still has
// an active job.
type Favorites struct {
	mu     sync.Mutex
	path   string
	byChat map[int64][]string
}

func NewFavorites(path string) *Favorites {
	return &Favorites{path: path, byChat: make(map[int64][]string)}
}

// Load reads the favorites file. A missing file leaves the set empty.
func (f *Favorites) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mensa: read favorites: %w", err)
	}
	byChat := make(map[int64][]string)
	if err := json.Unmarshal(raw, &byChat); err != nil {
		return fmt.Errorf("mensa: parse favorites: %w", err)
	}
	f.byChat = byChat
	return nil
}

func (f *Favorites) saveLocked() error {
	raw, err := json.MarshalIndent(f.byChat, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.path, append(raw, '\n'), 0o600)
}

// SetDaily activates the daily job for chat. Returns false when the
// job already exists.
func (f *Favorites) SetDaily(chat int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byChat[chat]; ok {
		return false
	}
	f.byChat[chat] = []string{}
	_ = f.saveLocked()
	return true
}

// UnsetDaily removes the daily job and its favorites.
func (f *Favorites) UnsetDaily(chat int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byChat[chat]; !ok {
		return false
	}
	delete(f.byChat, chat)
	_ = f.saveLocked()
	return true
}

// Active reports whether chat has a daily job.
func (f *Favorites) Active(chat int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byChat[chat]
	return ok
}

// Add appends name to chat's favorites, ignoring duplicates. Returns
// false when chat has no daily job.
func (f *Favorites) Add(chat int64, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, ok := f.byChat[chat]
	if !ok {
		return false
	}
	for _, have := range list {
		if have == name {
			return true
		}
	}
	f.byChat[chat] = append(list, name)
	_ = f.saveLocked()
	return true
}

// Remove drops name from chat's favorites.
func (f *Favorites) Remove(chat int64, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, ok := f.byChat[chat]
	if !ok {
		return false
	}
	for i, have := range list {
		if have == name {
			f.byChat[chat] = append(list[:i], list[i+1:]...)
			_ = f.saveLocked()
			return true
		}
	}
	return true
}

// List returns chat's favorites and whether a daily job exists.
func (f *Favorites) List(chat int64) ([]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, ok := f.byChat[chat]
	if !ok {
		return nil, false
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, true
}

// Chats returns every chat with an active daily job.
func (f *Favorites) Chats() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, 0, len(f.byChat))
	for chat := range f.byChat {
		out = append(out, chat)
	}
	return out
}
