package repository

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSeed(t *testing.T) {
	doc := `
items:
  - {path: /docs, type: folder, modified: 2024-02-01}
  - {path: docs/a.TXT, size: 3, modified: "2024-02-02T10:00:00Z"}
`
	items, err := ParseSeed(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[1].Path != "/docs/a.TXT" || items[1].Name != "a.TXT" || items[1].Extension != "txt" {
		t.Errorf("unexpected item %+v", items[1])
	}
	if items[1].LastModified.Hour() != 10 {
		t.Errorf("expected RFC3339 time, got %s", items[1].LastModified)
	}
}

func TestParseSeedEmpty(t *testing.T) {
	items, err := ParseSeed(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestParseSeedRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"orphan", "items:\n  - {path: /a/b.txt}\n"},
		{"file parent", "items:\n  - {path: /a}\n  - {path: /a/b}\n"},
		{"duplicate", "items:\n  - {path: /a}\n  - {path: /a}\n"},
		{"no path", "items:\n  - {type: file}\n"},
		{"bad type", "items:\n  - {path: /a, type: link}\n"},
		{"bad time", "items:\n  - {path: /a, modified: yesterday}\n"},
	}
	for _, tt := range tests {
		if _, err := ParseSeed(strings.NewReader(tt.doc)); !errors.Is(err, ErrInvalidSeed) {
			t.Errorf("%s: err = %v, want ErrInvalidSeed", tt.name, err)
		}
	}

	if _, err := ParseSeed(strings.NewReader("items: [")); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("items:\n  - {path: /only.txt, size: 1}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	items, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if len(items) != 1 || items[0].Name != "only.txt" {
		t.Errorf("unexpected items %+v", items)
	}

	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
