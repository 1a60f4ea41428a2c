package gmail

import (
	"context"
	"fmt"
)

// ComposeRequest is a new message to send or save as a draft.
type ComposeRequest struct {
	From       string
	To         []string
	Cc         []string
	Bcc        []string
	Subject    string
	Body       string
	BodyFormat BodyFormat

	ThreadID   string
	InReplyTo  string
	References string

	// Attachments is the JSON attachment spec, see ParseAttachmentSpec.
	Attachments string
}

// AttachmentSummary describes an attachment that went out with a message.
type AttachmentSummary struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
	Source   string `json:"source"`
}

// ComposeResult is returned by Send, Draft and Forward.
type ComposeResult struct {
	ID          string              `json:"id"`
	ThreadID    string              `json:"thread_id,omitempty"`
	Attachments []AttachmentSummary `json:"attachments,omitempty"`
}

// Send resolves the request's attachments, assembles the message and sends it.
func Send(ctx context.Context, svc MailService, req ComposeRequest) (*ComposeResult, error) {
	if len(req.To) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	env, err := envelopeFor(ctx, svc, req)
	if err != nil {
		return nil, err
	}
	return deliver(ctx, env, svc.Send)
}

// Draft is like Send but stores the message as a draft.
func Draft(ctx context.Context, svc MailService, req ComposeRequest) (*ComposeResult, error) {
	env, err := envelopeFor(ctx, svc, req)
	if err != nil {
		return nil, err
	}
	return deliver(ctx, env, svc.CreateDraft)
}

// Forward sends an existing message to new recipients.
func Forward(ctx context.Context, svc MailService, messageID string, opts ForwardOptions) (*ComposeResult, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}
	if len(opts.To) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}

	original, err := svc.GetMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get original message: %w", err)
	}
	env, err := BuildForward(ctx, svc, original, opts)
	if err != nil {
		return nil, err
	}
	return deliver(ctx, env, svc.Send)
}

func envelopeFor(ctx context.Context, svc MailService, req ComposeRequest) (Envelope, error) {
	atts, err := ResolveAttachments(ctx, svc, req.Attachments)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Subject:     req.Subject,
		Body:        req.Body,
		BodyFormat:  req.BodyFormat,
		From:        req.From,
		To:          req.To,
		Cc:          req.Cc,
		Bcc:         req.Bcc,
		ThreadID:    req.ThreadID,
		InReplyTo:   req.InReplyTo,
		References:  req.References,
		Attachments: atts,
	}, nil
}

func deliver(ctx context.Context, env Envelope, submit func(ctx context.Context, raw, threadID string) (string, error)) (*ComposeResult, error) {
	raw, threadID, err := PrepareMessage(env)
	if err != nil {
		return nil, err
	}
	id, err := submit(ctx, raw, threadID)
	if err != nil {
		return nil, err
	}
	return &ComposeResult{
		ID:          id,
		ThreadID:    threadID,
		Attachments: Summarize(env.Attachments),
	}, nil
}

// Summarize drops attachment content, keeping what a caller wants to see.
func Summarize(atts []ResolvedAttachment) []AttachmentSummary {
	if len(atts) == 0 {
		return nil
	}
	out := make([]AttachmentSummary, len(atts))
	for i, a := range atts {
		out[i] = AttachmentSummary{
			Filename: a.Filename,
			MimeType: a.MimeType,
			Size:     len(a.Data),
			Source:   a.Source,
		}
	}
	return out
}
