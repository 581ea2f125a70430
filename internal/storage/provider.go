// Package storage defines the recipe file directory abstraction used for
// import and export.
package storage

import "github.com/starford/larder/internal/models"

// Provider is the interface for recipe file operations.
type Provider interface {
	// List returns metadata for every recipe file under dir (relative to the root).
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
}
