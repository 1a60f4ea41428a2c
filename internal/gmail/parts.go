package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// AttachmentInfo represents an attachment's metadata
type AttachmentInfo struct {
	MessageID    string
	PartID       string
	AttachmentID string
	Filename     string
	MimeType     string
	Size         int64

	// Data holds base64url content for small attachments Gmail embeds
	// directly in the part instead of issuing an attachment ID.
	Data string
}

// Attachments lists the attachment parts of a full-format message.
func Attachments(msg *gmail.Message) []AttachmentInfo {
	if msg == nil {
		return nil
	}
	var out []AttachmentInfo
	walkParts(msg.Payload, func(part *gmail.MessagePart) {
		if part.Filename == "" || part.Body == nil {
			return
		}
		if part.Body.AttachmentId == "" && part.Body.Data == "" {
			return
		}
		out = append(out, AttachmentInfo{
			MessageID:    msg.Id,
			PartID:       part.PartId,
			AttachmentID: part.Body.AttachmentId,
			Filename:     part.Filename,
			MimeType:     part.MimeType,
			Size:         part.Body.Size,
			Data:         part.Body.Data,
		})
	})
	return out
}

// MessageBody extracts the text or HTML body of a full-format message.
// format is "text" (default) or "html".
func MessageBody(msg *gmail.Message, format string) (string, error) {
	var targetMimeType string
	switch format {
	case "", "text":
		format = "text"
		targetMimeType = "text/plain"
	case "html":
		targetMimeType = "text/html"
	default:
		return "", fmt.Errorf("invalid format %s, must be 'text' or 'html'", format)
	}

	var body string
	if msg != nil {
		walkParts(msg.Payload, func(part *gmail.MessagePart) {
			if body != "" || part.Filename != "" || part.Body == nil {
				return
			}
			if part.MimeType == targetMimeType && part.Body.Data != "" {
				body = part.Body.Data
			}
		})
	}
	if body == "" {
		return "", fmt.Errorf("no %s body found in message", format)
	}

	decoded, err := DecodeData(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode message body: %w", err)
	}
	return string(decoded), nil
}

// HeaderValue returns the first top-level header named header, matched
// case-insensitively.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

// walkParts visits part and all of its descendants depth first.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}

	fn(part)

	for _, subpart := range part.Parts {
		walkParts(subpart, fn)
	}
}

// DecodeData decodes base64url content as delivered by the Gmail API,
// with or without padding.
func DecodeData(data string) ([]byte, error) {
	return decodeBase64(data, base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding)
}
