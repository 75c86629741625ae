package model

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced by the upload path. The handler maps each of these
// to a structured {status:"failed", error} payload; none of them is fatal to
// the process.
var (
	// ErrInvalidInput covers a missing or empty upload file.
	ErrInvalidInput = errors.New("invalid_input")

	// ErrNotLinked means no TikTok credentials exist for the caller at all.
	ErrNotLinked = errors.New("tiktok account not linked")

	// ErrCredentialRefresh means credentials exist but the refresh exchange
	// failed (revoked grant, network error). Distinct from ErrNotLinked so
	// the frontend can direct the user to re-authorize rather than re-link.
	ErrCredentialRefresh = errors.New("credential refresh failed")

	// ErrMissingToken is the minimal-variant startup token being absent.
	ErrMissingToken = errors.New("missing token")

	// ErrStatusTimeout means the status poll never reached a terminal state
	// within the configured attempt bound.
	ErrStatusTimeout = errors.New("timeout")

	// ErrStorageUnavailable wraps post-log write failures. Callers log it but
	// never let it mask the publish outcome.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ErrorCode flattens an upload-path error into its taxonomy code. Unknown
// errors fall through to "upload_failed".
func ErrorCode(err error) string {
	var pe *PlatformError
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotLinked):
		return "not_linked"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrCredentialRefresh):
		return "credential_refresh_failed"
	case errors.Is(err, ErrStatusTimeout):
		return "timeout"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.As(err, &pe):
		return "platform_rejected"
	default:
		return "upload_failed"
	}
}

// PlatformError carries a vendor-side rejection verbatim, code and message
// straight from TikTok's error envelope.
type PlatformError struct {
	Code    string
	Message string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("tiktok api error [%s]: %s", e.Code, e.Message)
}
