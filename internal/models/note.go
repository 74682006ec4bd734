// Package models defines the domain types shared across daygap packages.
package models

import "time"

// NoteFile is the lightweight representation of a vault file returned by
// list operations. The path is relative to the vault root.
type NoteFile struct {
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
}
