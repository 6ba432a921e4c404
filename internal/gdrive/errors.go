package gdrive

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	// ErrNotAuthenticated is returned before any network I/O when no usable
	// token exists.
	ErrNotAuthenticated = errors.New("gdrive: not authenticated")

	// ErrNoFolderConfigured is returned by folder-dependent operations until
	// a sync folder has been selected.
	ErrNoFolderConfigured = errors.New("gdrive: no sync folder configured")

	// ErrAttachmentNotFound is returned when no attachment matches the id.
	ErrAttachmentNotFound = errors.New("gdrive: attachment not found")
)

// ProviderError is a non-success response from the Drive API, carrying the
// backend's message when one could be parsed out of the body.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gdrive: api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gdrive: api error %d", e.Status)
}

// driveErrorBody is the Drive API error envelope.
type driveErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// apiError translates a request/response pair into a single error value:
// transport failures are wrapped, non-2xx responses become a *ProviderError.
func apiError(resp *req.Response, requestErr error, op string) error {
	if requestErr != nil {
		return fmt.Errorf("gdrive: %s: %w", op, requestErr)
	}

	if resp.IsErrorState() {
		provErr := &ProviderError{Status: resp.StatusCode}
		if body, ok := resp.ErrorResult().(*driveErrorBody); ok && body.Error.Message != "" {
			provErr.Message = body.Error.Message
		}
		return fmt.Errorf("%s: %w", op, provErr)
	}

	return nil
}
