package gmail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/workspace-mcp/internal/instrumentation"
)

const userID = "me"

// Client wraps the Gmail Users service for one account.
type Client struct {
	svc     *gmail.UsersService
	account string
	metrics *instrumentation.Metrics
}

var _ MailService = (*Client)(nil)

// NewClient creates a Gmail client that authenticates with httpClient.
// Extra options, such as option.WithEndpoint, are passed to the API client.
func NewClient(ctx context.Context, account string, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{
		svc:     svc.Users,
		account: account,
	}, nil
}

// SetMetrics makes the client record an operation metric per API call.
func (c *Client) SetMetrics(m *instrumentation.Metrics) {
	c.metrics = m
}

func (c *Client) record(ctx context.Context, op string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, op, status, time.Since(start))
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// GetMessage retrieves a full Gmail message
func (c *Client) GetMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "messages.get",
		instrumentation.NewSpanAttributeBuilder().WithResource("message", messageID).Build()...)
	defer span.End()
	start := time.Now()

	msg, err := c.svc.Messages.Get(userID, messageID).Format("full").Context(ctx).Do()
	c.record(ctx, "messages.get", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, &RemoteServiceError{Op: "messages.get", Err: err}
	}
	return msg, nil
}

// GetAttachment retrieves the base64url data of an attachment along with its
// declared size.
func (c *Client) GetAttachment(ctx context.Context, messageID, attachmentID string) (string, int64, error) {
	if messageID == "" {
		return "", 0, fmt.Errorf("messageID is required")
	}
	if attachmentID == "" {
		return "", 0, fmt.Errorf("attachmentID is required")
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "attachments.get",
		instrumentation.NewSpanAttributeBuilder().WithResource("attachment", attachmentID).Build()...)
	defer span.End()
	start := time.Now()

	body, err := c.svc.Messages.Attachments.Get(userID, messageID, attachmentID).Context(ctx).Do()
	c.record(ctx, "attachments.get", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", 0, &RemoteServiceError{Op: "attachments.get", Err: err}
	}
	return body.Data, body.Size, nil
}

// Send sends a raw message, optionally into an existing thread.
func (c *Client) Send(ctx context.Context, raw, threadID string) (string, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "messages.send")
	defer span.End()
	start := time.Now()

	sent, err := c.svc.Messages.Send(userID, &gmail.Message{Raw: raw, ThreadId: threadID}).Context(ctx).Do()
	c.record(ctx, "messages.send", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", &RemoteServiceError{Op: "messages.send", Err: err}
	}
	return sent.Id, nil
}

// CreateDraft saves a raw message as a draft, optionally in an existing thread.
func (c *Client) CreateDraft(ctx context.Context, raw, threadID string) (string, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "drafts.create")
	defer span.End()
	start := time.Now()

	draft := &gmail.Draft{Message: &gmail.Message{Raw: raw, ThreadId: threadID}}
	created, err := c.svc.Drafts.Create(userID, draft).Context(ctx).Do()
	c.record(ctx, "drafts.create", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", &RemoteServiceError{Op: "drafts.create", Err: err}
	}
	return created.Id, nil
}

// ListThreads returns up to maxResults threads matching the Gmail query q.
func (c *Client) ListThreads(ctx context.Context, q string, maxResults int64) ([]*gmail.Thread, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "threads.list")
	defer span.End()
	start := time.Now()

	res, err := c.svc.Threads.List(userID).Q(q).MaxResults(maxResults).Context(ctx).Do()
	c.record(ctx, "threads.list", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, &RemoteServiceError{Op: "threads.list", Err: err}
	}
	return res.Threads, nil
}

// ArchiveThread archives a thread by removing the INBOX label
func (c *Client) ArchiveThread(ctx context.Context, threadID string) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "threads.modify",
		instrumentation.NewSpanAttributeBuilder().WithResource("thread", threadID).Build()...)
	defer span.End()
	start := time.Now()

	_, err := c.svc.Threads.Modify(userID, threadID, &gmail.ModifyThreadRequest{
		RemoveLabelIds: []string{"INBOX"},
	}).Context(ctx).Do()
	c.record(ctx, "threads.modify", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return &RemoteServiceError{Op: "threads.modify", Err: err}
	}
	return nil
}
