package models

import "time"

// StoredFile describes an uploaded receipt. The bytes live on disk at Path.
type StoredFile struct {
	Key         string    `json:"key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Email       string    `json:"email,omitempty"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}
