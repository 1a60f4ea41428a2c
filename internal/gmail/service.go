package gmail

import (
	"context"

	gmail "google.golang.org/api/gmail/v1"
)

// AttachmentFetcher downloads attachment bytes that already live in the
// mailbox. Data is returned base64 encoded with the URL-safe alphabet,
// exactly as the Gmail API delivers it, together with the declared size.
type AttachmentFetcher interface {
	GetAttachment(ctx context.Context, messageID, attachmentID string) (data string, size int64, err error)
}

// MailService is the narrow set of Gmail operations the compose pipeline
// needs. *Client is the production implementation.
type MailService interface {
	AttachmentFetcher

	// GetMessage returns a message in "full" format, headers and parts included.
	GetMessage(ctx context.Context, messageID string) (*gmail.Message, error)

	// Send sends a raw base64url encoded RFC 5322 message and returns its ID.
	Send(ctx context.Context, raw, threadID string) (string, error)

	// CreateDraft stores a raw message as a draft and returns the draft ID.
	CreateDraft(ctx context.Context, raw, threadID string) (string, error)
}

// Mailbox adds the thread operations exposed as tools to MailService.
type Mailbox interface {
	MailService

	ListThreads(ctx context.Context, q string, maxResults int64) ([]*gmail.Thread, error)
	ArchiveThread(ctx context.Context, threadID string) error
}

var _ Mailbox = (*Client)(nil)
