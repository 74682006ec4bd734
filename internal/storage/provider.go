// Package storage defines the vault file-system abstraction.
package storage

import "github.com/example/daygap/internal/models"

// Provider is the interface for vault file operations.
type Provider interface {
	// List walks dir (relative to vault root) and returns every .md file.
	List(dir string) ([]models.NoteFile, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
	// Exists reports whether a file exists at path (relative to vault root).
	Exists(path string) (bool, error)
}
