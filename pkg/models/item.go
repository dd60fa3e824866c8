// Package models contains the data types shared by the server, the client
// and the CLI.
package models

import "time"

// Kind distinguishes files from folders.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Item is a file or folder in the simulated file tree. Items reference their
// parent only through the string prefix of Path.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Kind         Kind      `json:"type"`
	Size         int64     `json:"size,omitempty"`
	LastModified time.Time `json:"last_modified"`
	Path         string    `json:"path"`
	Extension    string    `json:"extension,omitempty"`
}

// IsDir reports whether the item is a folder.
func (i Item) IsDir() bool {
	return i.Kind == KindFolder
}

// Segment is one breadcrumb step: a path component and the cumulative path
// up to and including it.
type Segment struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
