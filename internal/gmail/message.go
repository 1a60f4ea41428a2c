package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/mail"
)

// BodyFormat selects the content type of the message body.
type BodyFormat string

const (
	BodyFormatPlain BodyFormat = "plain"
	BodyFormatHTML  BodyFormat = "html"
)

// ParseBodyFormat maps the tool argument to a BodyFormat. Empty means plain.
func ParseBodyFormat(s string) (BodyFormat, error) {
	switch strings.ToLower(s) {
	case "", "plain", "text":
		return BodyFormatPlain, nil
	case "html":
		return BodyFormatHTML, nil
	default:
		return "", fmt.Errorf("invalid body format %q, must be 'plain' or 'html'", s)
	}
}

func (f BodyFormat) contentType() string {
	if f == BodyFormatHTML {
		return "text/html"
	}
	return "text/plain"
}

// Envelope holds everything needed to serialize one outgoing message.
type Envelope struct {
	Subject    string
	Body       string
	BodyFormat BodyFormat

	From string
	To   []string
	Cc   []string
	Bcc  []string

	ThreadID   string
	InReplyTo  string
	References string

	Attachments []ResolvedAttachment
}

// ReplySubject prefixes subject with "Re: " unless it already carries a
// reply prefix in any letter case.
func ReplySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// PrepareMessage serializes env into the base64url form Gmail expects in
// Message.Raw and returns it with the thread ID to send it under.
//
// Without attachments the message is a single text part. With attachments
// it is multipart/mixed: the body first, then one part per attachment in
// order.
func PrepareMessage(env Envelope) (raw string, threadID string, err error) {
	subject := env.Subject
	if env.InReplyTo != "" {
		subject = ReplySubject(subject)
	}

	var h mail.Header
	h.Set("MIME-Version", "1.0")
	if env.From != "" {
		setAddressHeader(&h, "From", env.From)
	}
	if len(env.To) > 0 {
		setAddressHeader(&h, "To", strings.Join(env.To, ", "))
	}
	if len(env.Cc) > 0 {
		setAddressHeader(&h, "Cc", strings.Join(env.Cc, ", "))
	}
	if len(env.Bcc) > 0 {
		setAddressHeader(&h, "Bcc", strings.Join(env.Bcc, ", "))
	}
	h.SetSubject(subject)
	if env.InReplyTo != "" {
		h.Set("In-Reply-To", env.InReplyTo)
	}
	if env.References != "" {
		h.Set("References", env.References)
	}

	var buf bytes.Buffer
	if len(env.Attachments) == 0 {
		err = writeSinglePart(&buf, h, env)
	} else {
		err = writeMultipart(&buf, h, env)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to build message: %w", err)
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), env.ThreadID, nil
}

func writeSinglePart(w io.Writer, h mail.Header, env Envelope) error {
	h.SetContentType(env.BodyFormat.contentType(), map[string]string{"charset": "utf-8"})
	bw, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(bw, env.Body); err != nil {
		return err
	}
	return bw.Close()
}

func writeMultipart(w io.Writer, h mail.Header, env Envelope) error {
	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return err
	}

	var bh mail.InlineHeader
	bh.SetContentType(env.BodyFormat.contentType(), map[string]string{"charset": "utf-8"})
	bw, err := mw.CreateSingleInline(bh)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(bw, env.Body); err != nil {
		return err
	}
	if err := bw.Close(); err != nil {
		return err
	}

	for _, att := range env.Attachments {
		mimeType := att.MimeType
		if mimeType == "" {
			mimeType = DetectMimeType(att.Filename)
		}

		mediaType, params, err := mime.ParseMediaType(mimeType)
		if err != nil {
			mediaType, params = DetectMimeType(att.Filename), nil
		}

		var ah mail.AttachmentHeader
		ah.SetContentType(mediaType, params)
		ah.SetFilename(SanitizeAttachmentFilename(att.Filename))
		ah.Set("Content-Transfer-Encoding", "base64")

		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return err
		}
		if _, err := aw.Write(att.Data); err != nil {
			return err
		}
		if err := aw.Close(); err != nil {
			return err
		}
	}

	return mw.Close()
}

// setAddressHeader writes value verbatim, re-encoding it as an address list
// only when it contains non-ASCII display names.
func setAddressHeader(h *mail.Header, key, value string) {
	if isASCII(value) {
		h.Set(key, value)
		return
	}
	addrs, err := mail.ParseAddressList(value)
	if err != nil {
		h.Set(key, value)
		return
	}
	h.SetAddressList(key, addrs)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
