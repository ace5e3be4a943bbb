package botapi

import (
	"errors"
	"fmt"
)

// ErrAttachmentNotReady is reported by the platform when an uploaded
// attachment has not finished server-side processing. Callers match it with
// errors.Is; it is the only send error worth retrying.
var ErrAttachmentNotReady = errors.New("attachment not ready")

// Error codes the client gives special treatment.
const (
	codeAttachmentNotReady = "attachment.not.ready"
	codeTooManyRequests    = "too.many.requests"
)

// APIError is a platform error response decoded from a non-2xx reply.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrAttachmentNotReady) match the corresponding
// platform error code.
func (e *APIError) Is(target error) bool {
	return target == ErrAttachmentNotReady && e.Code == codeAttachmentNotReady
}

// TooManyRequests reports whether the platform rate-limited the call.
func (e *APIError) TooManyRequests() bool {
	return e.StatusCode == 429 || e.Code == codeTooManyRequests
}
