package gmail

import (
	"errors"
	"fmt"
)

// Sentinel errors for matching with errors.Is.
var (
	ErrMalformedInput    = errors.New("malformed input")
	ErrMissingField      = errors.New("missing field")
	ErrInvalidEncoding   = errors.New("invalid encoding")
	ErrSizeLimitExceeded = errors.New("size limit exceeded")
	ErrRemoteService     = errors.New("remote service error")
)

// MalformedInputError is returned when the attachment spec is not a JSON
// array of objects.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("Invalid attachments JSON: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// MissingFieldError names the field an attachment descriptor lacks.
type MissingFieldError struct {
	Index int
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("attachment %d: missing required field %q", e.Index, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// InvalidEncodingError is returned when attachment content is not valid base64.
type InvalidEncodingError struct {
	Filename string
	Err      error
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("Invalid base64 content for attachment %q: %v", e.Filename, e.Err)
}

func (e *InvalidEncodingError) Unwrap() error { return e.Err }

func (e *InvalidEncodingError) Is(target error) bool { return target == ErrInvalidEncoding }

// SizeLimitExceededError is returned when a decoded attachment is larger
// than MaxAttachmentSize.
type SizeLimitExceededError struct {
	Filename string
	Size     int
	Limit    int
}

func (e *SizeLimitExceededError) Error() string {
	return fmt.Sprintf("attachment %q is %d bytes, exceeding the %dMB limit", e.Filename, e.Size, e.Limit/(1024*1024))
}

func (e *SizeLimitExceededError) Is(target error) bool { return target == ErrSizeLimitExceeded }

// RemoteServiceError wraps a failed Gmail API call verbatim.
type RemoteServiceError struct {
	Op  string
	Err error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("gmail %s failed: %v", e.Op, e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

func (e *RemoteServiceError) Is(target error) bool { return target == ErrRemoteService }
