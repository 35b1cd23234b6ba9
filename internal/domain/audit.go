package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	ActionUpload      AuditAction = "upload"
	ActionDownload    AuditAction = "download"
	ActionView        AuditAction = "view"
	ActionSaveContent AuditAction = "save_content"
	ActionMoveToBin   AuditAction = "move_to_bin"
	ActionRestore     AuditAction = "restore"
	ActionPurge       AuditAction = "purge"
	ActionShare       AuditAction = "share"
	ActionRegister    AuditAction = "register"
	ActionLogin       AuditAction = "login"
)

type AuditEntry struct {
	ID        int64       `json:"id" db:"id"`
	UserID    uuid.UUID   `json:"user_id" db:"user_id"`
	Action    AuditAction `json:"action" db:"action"`
	Details   string      `json:"details" db:"details"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
