package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

const forwardSeparator = "---------- Forwarded message ---------"

// ForwardOptions controls how an existing message is forwarded.
type ForwardOptions struct {
	From string
	To   []string
	Cc   []string
	Bcc  []string

	// Note is written above the forwarded block.
	Note       string
	BodyFormat BodyFormat

	// IncludeAttachments re-attaches the original message's attachments.
	IncludeAttachments bool
}

// ForwardSubject prefixes subject with "Fwd: " unless it already starts
// with exactly that prefix.
func ForwardSubject(subject string) string {
	if strings.HasPrefix(subject, "Fwd: ") {
		return subject
	}
	return "Fwd: " + subject
}

// BuildForward turns original into a new Envelope addressed per opts.
// Original attachments are resolved through fetcher only when
// opts.IncludeAttachments is set.
func BuildForward(ctx context.Context, fetcher AttachmentFetcher, original *gmail.Message, opts ForwardOptions) (Envelope, error) {
	if original == nil {
		return Envelope{}, fmt.Errorf("original message is required")
	}

	env := Envelope{
		Subject:    ForwardSubject(HeaderValue(original, "Subject")),
		Body:       forwardBody(original, opts),
		BodyFormat: opts.BodyFormat,
		From:       opts.From,
		To:         opts.To,
		Cc:         opts.Cc,
		Bcc:        opts.Bcc,
	}

	if !opts.IncludeAttachments {
		return env, nil
	}

	descs := ForwardDescriptors(original)
	atts, err := ResolveDescriptors(ctx, fetcher, descs)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to resolve original attachments: %w", err)
	}
	env.Attachments = atts
	return env, nil
}

// ForwardDescriptors describes the attachments of original so they can be
// resolved again. Parts with an attachment ID become references; small
// parts Gmail embeds directly are carried inline.
func ForwardDescriptors(original *gmail.Message) []AttachmentDescriptor {
	var descs []AttachmentDescriptor
	for _, info := range Attachments(original) {
		if info.AttachmentID != "" {
			descs = append(descs, ReferenceAttachment{
				Filename:           info.Filename,
				MimeType:           info.MimeType,
				SourceMessageID:    info.MessageID,
				SourceAttachmentID: info.AttachmentID,
			})
			continue
		}
		data, err := decodeBase64(info.Data, base64.URLEncoding, base64.RawURLEncoding)
		if err != nil {
			// leave the undecodable payload to the resolver to report
			descs = append(descs, InlineAttachment{Filename: info.Filename, MimeType: info.MimeType, ContentBase64: info.Data})
			continue
		}
		descs = append(descs, InlineAttachment{
			Filename:      info.Filename,
			MimeType:      info.MimeType,
			ContentBase64: base64.StdEncoding.EncodeToString(data),
		})
	}
	return descs
}

func forwardBody(original *gmail.Message, opts ForwardOptions) string {
	from := HeaderValue(original, "From")
	date := HeaderValue(original, "Date")
	subject := HeaderValue(original, "Subject")
	to := HeaderValue(original, "To")

	var b strings.Builder
	if opts.BodyFormat == BodyFormatHTML {
		body, err := MessageBody(original, "html")
		if err != nil {
			text, _ := MessageBody(original, "text")
			body = strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
		}
		b.WriteString(opts.Note)
		b.WriteString("<br><br>")
		b.WriteString(forwardSeparator + "<br>")
		fmt.Fprintf(&b, "From: %s<br>", html.EscapeString(from))
		fmt.Fprintf(&b, "Date: %s<br>", html.EscapeString(date))
		fmt.Fprintf(&b, "Subject: %s<br>", html.EscapeString(subject))
		fmt.Fprintf(&b, "To: %s<br><br>", html.EscapeString(to))
		b.WriteString(body)
		return b.String()
	}

	body, _ := MessageBody(original, "text")
	b.WriteString(opts.Note)
	b.WriteString("\n\n")
	b.WriteString(forwardSeparator + "\n")
	fmt.Fprintf(&b, "From: %s\n", from)
	fmt.Fprintf(&b, "Date: %s\n", date)
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "To: %s\n\n", to)
	b.WriteString(body)
	return b.String()
}
