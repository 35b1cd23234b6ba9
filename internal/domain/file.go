package domain

import (
	"time"

	"github.com/google/uuid"
)

type FileStatus string

const (
	FileStatusActive FileStatus = "active"
	FileStatusBin    FileStatus = "bin"
)

// File is the registry entry for one stored blob. SizeBytes is always the
// plaintext length, StoredBytes the length of the payload actually persisted
// (ciphertext when Encrypted). Quota accounting runs on StoredBytes, size
// reporting on SizeBytes.
type File struct {
	UUID        uuid.UUID  `json:"uuid" db:"uuid"`
	Name        string     `json:"name" db:"name"`
	MIMEType    string     `json:"mime_type" db:"mime_type"`
	SizeBytes   int64      `json:"size_bytes" db:"size_bytes"`
	StoredBytes int64      `json:"-" db:"stored_bytes"`
	Encrypted   bool       `json:"encrypted" db:"encrypted"`
	OwnerID     uuid.UUID  `json:"owner_id" db:"owner_id"`
	Status      FileStatus `json:"status" db:"status"`
	UploadedAt  time.Time  `json:"uploaded_at" db:"uploaded_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

type FileDownload struct {
	File *File
	Data []byte
}

// FileMeta is what listings and upload responses return. It never carries
// payload bytes.
type FileMeta struct {
	UUID       uuid.UUID  `json:"uuid"`
	Name       string     `json:"name"`
	MIMEType   string     `json:"mime_type"`
	SizeBytes  int64      `json:"size_bytes"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Status     FileStatus `json:"status"`
	UploadedAt time.Time  `json:"uploaded_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	Viewable   bool       `json:"viewable"`
	Editable   bool       `json:"editable"`
	SharedWith []string   `json:"shared_with,omitempty"`
}
