package channels

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseSlashCommand(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{"/start", "start", nil, true},
		{"/start 50", "start", []string{"50"}, true},
		{"/summarize -ingroup -language German", "summarize", []string{"-ingroup", "-language", "German"}, true},
		{"/start@witibot 10", "start", []string{"10"}, true},
		{"hello", "", nil, false},
		{"/", "", nil, false},
		{"/ start", "", nil, false},
		{"", "", nil, false},
	}
	for _, tt := range tests {
		name, args, ok := parseSlashCommand(tt.in)
		if ok != tt.wantOK || name != tt.wantName {
			t.Errorf("parseSlashCommand(%q) = %q, %v; want %q, %v", tt.in, name, ok, tt.wantName, tt.wantOK)
		}
		if tt.wantArgs == nil {
			tt.wantArgs = []string{}
		}
		if args == nil {
			args = []string{}
		}
		if !reflect.DeepEqual(args, tt.wantArgs) {
			t.Errorf("parseSlashCommand(%q) args = %v, want %v", tt.in, args, tt.wantArgs)
		}
	}
}

func TestSplitMessage_Short(t *testing.T) {
	chunks := splitMessage("hello", 10)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("got %v", chunks)
	}
}

func TestSplitMessage_PrefersNewlines(t *testing.T) {
	content := "line one\nline two\nline three"
	chunks := splitMessage(content, 20)
	if len(chunks) < 2 {
		t.Fatalf("expected a split, got %v", chunks)
	}
	for _, c := range chunks {
		if len(c) > 20 {
			t.Fatalf("chunk exceeds limit: %q", c)
		}
	}
	if joined := strings.Join(chunks, "\n"); !strings.Contains(joined, "line three") {
		t.Fatalf("content lost: %v", chunks)
	}
}

func TestSplitMessage_HardCut(t *testing.T) {
	content := strings.Repeat("a", 25)
	chunks := splitMessage(content, 10)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks: %v", len(chunks), chunks)
	}
	if strings.Join(chunks, "") != content {
		t.Fatal("hard cut dropped content")
	}
}

func TestHTMLEscape(t *testing.T) {
	if got := htmlEscape(`a < b && c > d`); got != "a &lt; b &amp;&amp; c &gt; d" {
		t.Fatalf("got %q", got)
	}
}
