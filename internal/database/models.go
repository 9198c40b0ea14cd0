package database

import "time"

// Asset is one catalog row.
type Asset struct {
	GUID    string    `json:"guid"`
	Path    string    `json:"path"`
	Type    string    `json:"type"`
	ModTime time.Time `json:"modTime"`
}
