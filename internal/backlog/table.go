package backlog

import "sync"

// Table maps conversations to their backlogs. It is the single owner of
// all retained-message state: a conversation enters the table only via
// Activate and leaves only via Deactivate, and membership is the
// authorization signal for every per-conversation operation.
//
// All methods are safe for concurrent use. Snapshots are copies; callers
// never observe later mutations through them.
type Table struct {
	mu   sync.Mutex
	logs map[ConversationID]*Backlog
}

func NewTable() *Table {
	return &Table{logs: make(map[ConversationID]*Backlog)}
}

// Activate creates an empty backlog with the given capacity.
// Returns false if the conversation is already active; the existing
// backlog is left untouched, in particular it is not resized.
func (t *Table) Activate(id ConversationID, capacity int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.logs[id]; ok {
		return false
	}
	t.logs[id] = newBacklog(capacity)
	return true
}

// Deactivate removes the conversation and its backlog.
// Returns false if the conversation was not active.
func (t *Table) Deactivate(id ConversationID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.logs[id]; !ok {
		return false
	}
	delete(t.logs, id)
	return true
}

// Append records one entry, evicting the oldest first when at capacity.
// Returns false if the conversation is not active.
func (t *Table) Append(id ConversationID, e Entry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.logs[id]
	if !ok {
		return false
	}
	b.append(e)
	return true
}

// Snapshot returns a copy of the conversation's entries in order.
// The second return is false if the conversation is not active.
func (t *Table) Snapshot(id ConversationID) ([]Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.logs[id]
	if !ok {
		return nil, false
	}
	return b.snapshot(), true
}

// Clear empties the conversation's backlog in place, keeping its capacity.
// Returns false if the conversation is not active.
func (t *Table) Clear(id ConversationID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.logs[id]
	if !ok {
		return false
	}
	b.clear()
	return true
}

// IsActive reports whether the conversation is tracked. This is the
// listening-filter predicate used by the controller's routing.
func (t *Table) IsActive(id ConversationID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.logs[id]
	return ok
}

// Len returns the number of retained entries for the conversation.
// The second return is false if the conversation is not active.
func (t *Table) Len(id ConversationID) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.logs[id]
	if !ok {
		return 0, false
	}
	return b.len(), true
}

// Export returns a copy of every conversation's entries, for persistence.
func (t *Table) Export() map[ConversationID][]Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[ConversationID][]Entry, len(t.logs))
	for id, b := range t.logs {
		out[id] = b.snapshot()
	}
	return out
}

// Import replaces the table's contents with the given conversations, each
// rehydrated at defaultCapacity. Histories longer than defaultCapacity
// keep only their most recent entries, matching the live eviction policy.
func (t *Table) Import(conversations map[ConversationID][]Entry, defaultCapacity int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = make(map[ConversationID]*Backlog, len(conversations))
	for id, entries := range conversations {
		b := newBacklog(defaultCapacity)
		for _, e := range entries {
			b.append(e)
		}
		t.logs[id] = b
	}
}
