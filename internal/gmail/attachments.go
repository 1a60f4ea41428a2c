package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxAttachmentSize defines the maximum attachment size in bytes (25MB)
	MaxAttachmentSize = 25 * 1024 * 1024

	// DefaultMimeType is used when no type is given and the extension is unknown.
	DefaultMimeType = "application/octet-stream"

	// DefaultFetchConcurrency bounds parallel attachment downloads.
	DefaultFetchConcurrency = 4
)

// Attachment sources reported in ResolvedAttachment.Source.
const (
	SourceInline    = "inline"
	SourceReference = "reference"
)

// AttachmentDescriptor describes one attachment to include in an outgoing
// message. It is either an InlineAttachment or a ReferenceAttachment.
type AttachmentDescriptor interface {
	filename() string
}

// InlineAttachment carries its content as standard base64.
type InlineAttachment struct {
	Filename      string
	MimeType      string
	ContentBase64 string
}

func (a InlineAttachment) filename() string { return a.Filename }

// ReferenceAttachment points at an attachment of an existing message.
type ReferenceAttachment struct {
	Filename           string
	MimeType           string
	SourceMessageID    string
	SourceAttachmentID string
}

func (a ReferenceAttachment) filename() string { return a.Filename }

// ResolvedAttachment is an attachment with its content in memory.
type ResolvedAttachment struct {
	Filename string
	MimeType string
	Data     []byte
	Source   string
}

// attachmentSpec is the JSON form accepted by the compose tools.
type attachmentSpec struct {
	Filename           string `json:"filename"`
	MimeType           string `json:"mime_type,omitempty"`
	ContentBase64      string `json:"content_base64,omitempty"`
	SourceMessageID    string `json:"source_message_id,omitempty"`
	SourceAttachmentID string `json:"source_attachment_id,omitempty"`
}

// ParseAttachmentSpec decodes a JSON array of attachment descriptors.
// Empty input yields no descriptors. When both inline content and a
// reference are present, the inline content wins.
func ParseAttachmentSpec(raw string) ([]AttachmentDescriptor, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var specs []attachmentSpec
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil, &MalformedInputError{Err: err}
	}
	if len(specs) == 0 {
		return nil, nil
	}

	descs := make([]AttachmentDescriptor, 0, len(specs))
	for i, s := range specs {
		if s.Filename == "" {
			return nil, &MissingFieldError{Index: i, Field: "filename"}
		}
		switch {
		case s.ContentBase64 != "":
			descs = append(descs, InlineAttachment{
				Filename:      s.Filename,
				MimeType:      s.MimeType,
				ContentBase64: s.ContentBase64,
			})
		case s.SourceMessageID != "" && s.SourceAttachmentID != "":
			descs = append(descs, ReferenceAttachment{
				Filename:           s.Filename,
				MimeType:           s.MimeType,
				SourceMessageID:    s.SourceMessageID,
				SourceAttachmentID: s.SourceAttachmentID,
			})
		default:
			return nil, &MissingFieldError{Index: i, Field: "content_base64 or source_message_id/source_attachment_id"}
		}
	}
	return descs, nil
}

// ResolveAttachments parses raw and resolves every descriptor into bytes.
// See ResolveDescriptors.
func ResolveAttachments(ctx context.Context, fetcher AttachmentFetcher, raw string) ([]ResolvedAttachment, error) {
	descs, err := ParseAttachmentSpec(raw)
	if err != nil {
		return nil, err
	}
	return ResolveDescriptors(ctx, fetcher, descs)
}

// ResolveDescriptors turns descriptors into in-memory attachments, keeping
// input order. Reference attachments are downloaded concurrently, at most
// DefaultFetchConcurrency at a time. Any failure aborts the whole batch and
// the error reported is the one of the first failing descriptor in input
// order, whatever order the downloads finish in.
func ResolveDescriptors(ctx context.Context, fetcher AttachmentFetcher, descs []AttachmentDescriptor) ([]ResolvedAttachment, error) {
	if len(descs) == 0 {
		return nil, nil
	}

	resolved := make([]ResolvedAttachment, len(descs))
	errs := make([]error, len(descs))

	// Local descriptors first. Downloads after the first local failure
	// cannot change the outcome and are skipped.
	limit := len(descs)
	for i, desc := range descs {
		switch d := desc.(type) {
		case InlineAttachment:
			resolved[i], errs[i] = resolveInline(d)
		case ReferenceAttachment:
			if fetcher == nil {
				errs[i] = &RemoteServiceError{Op: "attachments.get", Err: errors.New("no mail service available")}
			}
		default:
			errs[i] = fmt.Errorf("unsupported attachment descriptor %T", desc)
		}
		if errs[i] != nil {
			limit = i
			break
		}
	}

	var g errgroup.Group
	g.SetLimit(DefaultFetchConcurrency)
	for i := 0; i < limit; i++ {
		d, ok := descs[i].(ReferenceAttachment)
		if !ok {
			continue
		}
		g.Go(func() error {
			resolved[i], errs[i] = resolveReference(ctx, fetcher, d)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func resolveInline(d InlineAttachment) (ResolvedAttachment, error) {
	data, err := decodeBase64(d.ContentBase64, base64.StdEncoding, base64.RawStdEncoding)
	if err != nil {
		return ResolvedAttachment{}, &InvalidEncodingError{Filename: d.Filename, Err: err}
	}
	if err := CheckAttachmentSize(d.Filename, len(data)); err != nil {
		return ResolvedAttachment{}, err
	}
	return ResolvedAttachment{
		Filename: d.Filename,
		MimeType: resolveMimeType(d.MimeType, d.Filename),
		Data:     data,
		Source:   SourceInline,
	}, nil
}

func resolveReference(ctx context.Context, fetcher AttachmentFetcher, d ReferenceAttachment) (ResolvedAttachment, error) {
	encoded, size, err := fetcher.GetAttachment(ctx, d.SourceMessageID, d.SourceAttachmentID)
	if err != nil {
		var remote *RemoteServiceError
		if !errors.As(err, &remote) {
			err = &RemoteServiceError{Op: "attachments.get", Err: err}
		}
		return ResolvedAttachment{}, fmt.Errorf("failed to fetch attachment %q from message %s: %w", d.Filename, d.SourceMessageID, err)
	}
	if size > MaxAttachmentSize {
		return ResolvedAttachment{}, &SizeLimitExceededError{Filename: d.Filename, Size: int(size), Limit: MaxAttachmentSize}
	}

	data, err := decodeBase64(encoded, base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding)
	if err != nil {
		return ResolvedAttachment{}, &InvalidEncodingError{Filename: d.Filename, Err: err}
	}
	if err := CheckAttachmentSize(d.Filename, len(data)); err != nil {
		return ResolvedAttachment{}, err
	}
	return ResolvedAttachment{
		Filename: d.Filename,
		MimeType: resolveMimeType(d.MimeType, d.Filename),
		Data:     data,
		Source:   SourceReference,
	}, nil
}

// decodeBase64 tries each encoding in turn and returns the first error if
// none succeeds.
func decodeBase64(s string, encodings ...*base64.Encoding) ([]byte, error) {
	var firstErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// CheckAttachmentSize fails when size exceeds MaxAttachmentSize.
// Exactly MaxAttachmentSize bytes is accepted.
func CheckAttachmentSize(filename string, size int) error {
	if size > MaxAttachmentSize {
		return &SizeLimitExceededError{Filename: filename, Size: size, Limit: MaxAttachmentSize}
	}
	return nil
}

// SanitizeAttachmentFilename strips CR and LF so a filename cannot inject
// headers into the generated message.
func SanitizeAttachmentFilename(filename string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(filename)
}

func resolveMimeType(explicit, filename string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if _, _, err := mime.ParseMediaType(explicit); err == nil {
			return explicit
		}
	}
	return DetectMimeType(filename)
}

var extensionTypes = map[string]string{
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".css":  "text/css",
	".csv":  "text/csv",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".eml":  "message/rfc822",
	".gif":  "image/gif",
	".gz":   "application/gzip",
	".htm":  "text/html",
	".html": "text/html",
	".ics":  "text/calendar",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".js":   "text/javascript",
	".json": "application/json",
	".md":   "text/markdown",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".odp":  "application/vnd.oasis.opendocument.presentation",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",
	".odt":  "application/vnd.oasis.opendocument.text",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".rtf":  "application/rtf",
	".svg":  "image/svg+xml",
	".tar":  "application/x-tar",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".txt":  "text/plain",
	".wav":  "audio/wav",
	".webp": "image/webp",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".zip":  "application/zip",
}

// DetectMimeType guesses a MIME type from the filename extension and falls
// back to DefaultMimeType. The lookup does not depend on the host's
// mime.types files.
func DetectMimeType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return DefaultMimeType
}
