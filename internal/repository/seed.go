package repository

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/tree"
)

//go:embed seed.yaml
var defaultSeed []byte

// ErrInvalidSeed is returned when a seed document breaks the tree invariants.
var ErrInvalidSeed = errors.New("invalid seed")

type seedFile struct {
	Items []seedItem `yaml:"items"`
}

type seedItem struct {
	Path     string `yaml:"path"`
	Type     string `yaml:"type"`
	Size     int64  `yaml:"size"`
	Modified string `yaml:"modified"`
}

// DefaultSeed returns the built-in seed collection with fresh ids.
func DefaultSeed() ([]models.Item, error) {
	return ParseSeed(bytes.NewReader(defaultSeed))
}

// LoadSeedFile reads a seed collection from a YAML file.
func LoadSeedFile(path string) ([]models.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

// ParseSeed decodes a YAML seed document. Paths must be unique and every
// parent must be the root or a folder listed earlier.
func ParseSeed(r io.Reader) ([]models.Item, error) {
	var doc seedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	folders := map[string]bool{"/": true}
	seen := make(map[string]bool)
	items := make([]models.Item, 0, len(doc.Items))

	for i, s := range doc.Items {
		path := tree.Clean(s.Path)
		if path == "/" {
			return nil, fmt.Errorf("%w: entry %d has no path", ErrInvalidSeed, i)
		}
		if seen[path] {
			return nil, fmt.Errorf("%w: duplicate path %s", ErrInvalidSeed, path)
		}
		if !folders[tree.ParentPath(path)] {
			return nil, fmt.Errorf("%w: parent of %s is not a folder", ErrInvalidSeed, path)
		}
		seen[path] = true

		modified := time.Time{}
		if s.Modified != "" {
			t, err := parseSeedTime(s.Modified)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSeed, path, err)
			}
			modified = t
		}

		segments := tree.Segments(path)
		name := segments[len(segments)-1].Name
		parent := tree.ParentPath(path)

		switch models.Kind(s.Type) {
		case models.KindFolder:
			folders[path] = true
			items = append(items, NewFolder(parent, name, modified))
		case models.KindFile, "":
			items = append(items, NewFile(parent, name, s.Size, modified))
		default:
			return nil, fmt.Errorf("%w: %s: unknown type %q", ErrInvalidSeed, path, s.Type)
		}
	}
	return items, nil
}

func parseSeedTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
