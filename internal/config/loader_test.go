package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	def := DefaultConfig()
	if cfg.Provider.Model != def.Provider.Model {
		t.Errorf("expected default model %q, got %q", def.Provider.Model, cfg.Provider.Model)
	}
	if cfg.Backlog.DefaultCapacity != def.Backlog.DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", def.Backlog.DefaultCapacity, cfg.Backlog.DefaultCapacity)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"provider": map[string]any{"model": "gpt-4o", "apiKey": "sk-test"},
		"access": map[string]any{
			"approvedChats": []int64{-100123},
			"operatorChat":  999,
		},
		"backlog": map[string]any{"defaultCapacity": 50},
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider.Model != "gpt-4o" {
		t.Errorf("model = %q", cfg.Provider.Model)
	}
	if cfg.Access.OperatorChat != 999 {
		t.Errorf("operatorChat = %d", cfg.Access.OperatorChat)
	}
	if len(cfg.Access.ApprovedChats) != 1 || cfg.Access.ApprovedChats[0] != -100123 {
		t.Errorf("approvedChats = %v", cfg.Access.ApprovedChats)
	}
	if cfg.Backlog.DefaultCapacity != 50 {
		t.Errorf("defaultCapacity = %d", cfg.Backlog.DefaultCapacity)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error for invalid JSON (falls back to default), got: %v", err)
	}
	def := DefaultConfig()
	if cfg.Provider.Model != def.Provider.Model {
		t.Errorf("expected default model %q, got %q", def.Provider.Model, cfg.Provider.Model)
	}
}

func TestLoad_PartialConfig_UsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"channels": map[string]any{
			"telegram": map[string]any{"enabled": true, "token": "123:abc"},
		},
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Channels.Telegram.Enabled || cfg.Channels.Telegram.Token != "123:abc" {
		t.Errorf("telegram config = %+v", cfg.Channels.Telegram)
	}
	def := DefaultConfig()
	if cfg.Backlog.PrintLimit != def.Backlog.PrintLimit {
		t.Errorf("expected default printLimit %d, got %d", def.Backlog.PrintLimit, cfg.Backlog.PrintLimit)
	}
	if cfg.Mensa.DeliverCron != def.Mensa.DeliverCron {
		t.Errorf("expected default deliverCron %q, got %q", def.Mensa.DeliverCron, cfg.Mensa.DeliverCron)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	original := DefaultConfig()
	original.Provider.Model = "gpt-4o"
	original.Access.OperatorChat = 631157495

	if err := Save(&original, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider.Model != original.Provider.Model {
		t.Errorf("model mismatch: got %q", loaded.Provider.Model)
	}
	if loaded.Access.OperatorChat != original.Access.OperatorChat {
		t.Errorf("operatorChat mismatch: got %d", loaded.Access.OperatorChat)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected permissions 0600, got %04o", perm)
	}
}
