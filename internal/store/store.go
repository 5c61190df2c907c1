// Package store persists the backlog table as a versioned JSON snapshot.
//
// File format (version 1):
//
//	{"version":1,"conversations":[
//	    {"id":-100123,"entries":[{"author":"Alice","text":"hi"}, …]},
//	    …]}
//
// Capacities are not persisted; on load each conversation is rehydrated
// with the caller-supplied default capacity.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/witibot/witibot/internal/backlog"
)

const snapshotVersion = 1

// Store owns one snapshot file. Saves are serialized internally and
// replace the file atomically, so a crash mid-write never corrupts the
// previously committed snapshot.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

type wireSnapshot struct {
	Version       int                `json:"version"`
	Conversations []wireConversation `json:"conversations"`
}

type wireConversation struct {
	ID      int64       `json:"id"`
	Entries []wireEntry `json:"entries"`
}

type wireEntry struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// Save writes the full set of conversation entries to the snapshot file.
// The write goes to a temp file in the same directory and is renamed over
// the target, so readers always see a complete snapshot.
func (s *Store) Save(conversations map[backlog.ConversationID][]backlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := wireSnapshot{Version: snapshotVersion}
	for id, entries := range conversations {
		wc := wireConversation{ID: int64(id), Entries: make([]wireEntry, len(entries))}
		for i, e := range entries {
			wc.Entries[i] = wireEntry{Author: e.Author, Text: e.Text}
		}
		snap.Conversations = append(snap.Conversations, wc)
	}
	// Stable output makes snapshots diffable.
	sort.Slice(snap.Conversations, func(i, j int) bool {
		return snap.Conversations[i].ID < snap.Conversations[j].ID
	})

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot %s: %w", s.path, err)
	}
	return nil
}

// Load reads the snapshot and returns its conversations, each truncated
// to the most recent defaultCapacity entries. A missing, empty, or
// malformed file yields an empty table rather than an error: durability
// is best-effort and the process must start regardless.
func (s *Store) Load(defaultCapacity int) map[backlog.ConversationID][]backlog.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[backlog.ConversationID][]backlog.Entry)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("snapshot unreadable, starting empty", "path", s.path, "err", err)
		}
		return out
	}
	if len(data) == 0 {
		return out
	}

	var snap wireSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("snapshot malformed, starting empty", "path", s.path, "err", err)
		return out
	}

	for _, wc := range snap.Conversations {
		entries := wc.Entries
		if defaultCapacity > 0 && len(entries) > defaultCapacity {
			entries = entries[len(entries)-defaultCapacity:]
		}
		converted := make([]backlog.Entry, len(entries))
		for i, e := range entries {
			converted[i] = backlog.Entry{Author: e.Author, Text: e.Text}
		}
		out[backlog.ConversationID(wc.ID)] = converted
	}
	return out
}
