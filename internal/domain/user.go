package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultStorageLimit is the per-user quota assigned at registration (1 GiB).
const DefaultStorageLimit int64 = 1024 * 1024 * 1024

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	StorageUsed  int64     `json:"storage_used" db:"storage_used"`
	StorageLimit int64     `json:"storage_limit" db:"storage_limit"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type QuotaInfo struct {
	TotalSpace     int64   `json:"total_space"`
	UsedSpace      int64   `json:"used_space"`
	AvailableSpace int64   `json:"available_space"`
	UsagePercent   float64 `json:"usage_percent"`
}
