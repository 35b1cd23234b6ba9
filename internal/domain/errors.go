package domain

import (
	"errors"
	"fmt"
)

// Terminal errors of the file lifecycle. Handlers map them to HTTP statuses,
// services never retry them.
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrEmptyFile         = errors.New("file is empty")
	ErrUnsupportedType   = errors.New("file type is not allowed")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrSelfShare         = errors.New("cannot share a file with yourself")
	ErrAlreadyShared     = errors.New("file is already shared with this user")
	ErrDecryptionFailed  = errors.New("decryption failed")
)

// QuotaExceededError carries the numbers the frontend shows in the
// "storage full" message.
type QuotaExceededError struct {
	UsedBytes  int64
	LimitBytes int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded: %.2f GB of %.2f GB used",
		float64(e.UsedBytes)/(1024*1024*1024),
		float64(e.LimitBytes)/(1024*1024*1024))
}

// IsQuotaExceeded reports whether err is a quota rejection.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}
