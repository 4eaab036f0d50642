package model

import "fmt"

// ErrorType classifies a sync failure so callers can pick a recovery action.
// PERMISSIONS_REVOKED needs the user to re-grant access and is never retried.
// SYNC_TIMEOUT is retried exactly once. DEVICE_NOT_FOUND means the platform or its bridge is missing.
type ErrorType string

const (
	ErrorPermissionsRevoked ErrorType = "PERMISSIONS_REVOKED"
	ErrorSyncTimeout        ErrorType = "SYNC_TIMEOUT"
	ErrorNoDataAvailable    ErrorType = "NO_DATA_AVAILABLE"
	ErrorDeviceNotFound     ErrorType = "DEVICE_NOT_FOUND"
	ErrorManualFallback     ErrorType = "MANUAL_FALLBACK_FAILED"
	ErrorPersistenceFailed  ErrorType = "PERSISTENCE_FAILED"
	ErrorInvalidState       ErrorType = "INVALID_STATE"
	ErrorSyncFailed         ErrorType = "SYNC_FAILED"
)

// SyncError is a classified sync failure
type SyncError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewSyncError creates a SyncError
func NewSyncError(t ErrorType, format string, args ...any) *SyncError {
	return &SyncError{Type: t, Message: fmt.Sprintf(format, args...)}
}
