package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttachmentSpec_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "[]", "null"} {
		descs, err := ParseAttachmentSpec(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Nil(t, descs, "input %q", raw)
	}
}

func TestParseAttachmentSpec_Errors(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantErr     error
		wantMessage string
	}{
		{
			name:        "not json",
			raw:         "not json",
			wantErr:     ErrMalformedInput,
			wantMessage: "Invalid attachments JSON",
		},
		{
			name:        "object instead of array",
			raw:         `{"filename":"a.txt","content_base64":"aGk="}`,
			wantErr:     ErrMalformedInput,
			wantMessage: "Invalid attachments JSON",
		},
		{
			name:        "missing filename",
			raw:         `[{"content_base64":"aGk="}]`,
			wantErr:     ErrMissingField,
			wantMessage: "filename",
		},
		{
			name:        "missing content",
			raw:         `[{"filename":"a.txt"}]`,
			wantErr:     ErrMissingField,
			wantMessage: "content_base64",
		},
		{
			name:        "reference without attachment id",
			raw:         `[{"filename":"a.txt","source_message_id":"m1"}]`,
			wantErr:     ErrMissingField,
			wantMessage: "source_attachment_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descs, err := ParseAttachmentSpec(tt.raw)
			require.Error(t, err)
			assert.Nil(t, descs)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}

func TestParseAttachmentSpec_Variants(t *testing.T) {
	descs, err := ParseAttachmentSpec(`[
		{"filename":"a.txt","content_base64":"aGk="},
		{"filename":"b.pdf","mime_type":"application/pdf","source_message_id":"m1","source_attachment_id":"att1"},
		{"filename":"c.txt","content_base64":"aGk=","source_message_id":"m1","source_attachment_id":"att2"}
	]`)
	require.NoError(t, err)
	require.Len(t, descs, 3)

	assert.Equal(t, InlineAttachment{Filename: "a.txt", ContentBase64: "aGk="}, descs[0])
	assert.Equal(t, ReferenceAttachment{
		Filename:           "b.pdf",
		MimeType:           "application/pdf",
		SourceMessageID:    "m1",
		SourceAttachmentID: "att1",
	}, descs[1])
	// inline content takes precedence over a reference
	assert.IsType(t, InlineAttachment{}, descs[2])
}

func TestResolveAttachments_Inline(t *testing.T) {
	raw := fmt.Sprintf(`[{"filename":"test.txt","content_base64":%q}]`, base64.StdEncoding.EncodeToString([]byte("Hello, World!")))

	atts, err := ResolveAttachments(context.Background(), nil, raw)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "test.txt", atts[0].Filename)
	assert.Equal(t, "text/plain", atts[0].MimeType)
	assert.Equal(t, []byte("Hello, World!"), atts[0].Data)
	assert.Equal(t, SourceInline, atts[0].Source)
}

func TestResolveAttachments_InvalidBase64(t *testing.T) {
	atts, err := ResolveAttachments(context.Background(), nil, `[{"filename":"a.bin","content_base64":"not!valid!base64!!!"}]`)
	require.Error(t, err)
	assert.Nil(t, atts)
	assert.True(t, errors.Is(err, ErrInvalidEncoding))
	assert.Contains(t, err.Error(), "Invalid base64")
}

func TestResolveAttachments_SizeLimit(t *testing.T) {
	exact := base64.StdEncoding.EncodeToString(make([]byte, MaxAttachmentSize))
	atts, err := ResolveAttachments(context.Background(), nil, `[{"filename":"big.bin","content_base64":"`+exact+`"}]`)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Len(t, atts[0].Data, MaxAttachmentSize)

	over := base64.StdEncoding.EncodeToString(make([]byte, MaxAttachmentSize+1))
	atts, err = ResolveAttachments(context.Background(), nil, `[{"filename":"big.bin","content_base64":"`+over+`"}]`)
	require.Error(t, err)
	assert.Nil(t, atts)
	assert.True(t, errors.Is(err, ErrSizeLimitExceeded))
	assert.Contains(t, err.Error(), "25MB")
}

func TestResolveAttachments_MimeTypes(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		mimeType string
		want     string
	}{
		{name: "explicit type wins", filename: "photo.png", mimeType: "application/x-custom", want: "application/x-custom"},
		{name: "explicit parameters are kept", filename: "notes.txt", mimeType: "text/plain; charset=iso-8859-1", want: "text/plain; charset=iso-8859-1"},
		{name: "png by extension", filename: "photo.png", want: "image/png"},
		{name: "upper case extension", filename: "REPORT.PDF", want: "application/pdf"},
		{name: "unknown extension", filename: "data.xyz", want: DefaultMimeType},
		{name: "no extension", filename: "README", want: DefaultMimeType},
		{name: "unparsable explicit type falls back", filename: "a.csv", mimeType: "not a type", want: "text/csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descs := []AttachmentDescriptor{InlineAttachment{Filename: tt.filename, MimeType: tt.mimeType, ContentBase64: "aGk="}}
			atts, err := ResolveDescriptors(context.Background(), nil, descs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, atts[0].MimeType)
		})
	}
}

func TestResolveAttachments_Reference(t *testing.T) {
	svc := newFakeMailService()
	payload := []byte{0xfb, 0xff, 0xfe, 'o', 'k'}
	svc.addAttachment("msg1", "att1", payload)
	// Gmail may omit padding
	svc.attachments[attachmentKey("msg1", "att2")] = storedAttachment{
		data: base64.RawURLEncoding.EncodeToString(payload),
		size: int64(len(payload)),
	}

	atts, err := ResolveAttachments(context.Background(), svc, `[
		{"filename":"one.bin","source_message_id":"msg1","source_attachment_id":"att1"},
		{"filename":"two.pdf","source_message_id":"msg1","source_attachment_id":"att2"}
	]`)
	require.NoError(t, err)
	require.Len(t, atts, 2)
	assert.Equal(t, payload, atts[0].Data)
	assert.Equal(t, payload, atts[1].Data)
	assert.Equal(t, DefaultMimeType, atts[0].MimeType)
	assert.Equal(t, "application/pdf", atts[1].MimeType)
	assert.Equal(t, SourceReference, atts[0].Source)
	assert.EqualValues(t, 2, svc.fetches.Load())
}

func TestResolveAttachments_PreservesOrder(t *testing.T) {
	svc := newFakeMailService()
	var parts []string
	for i := 0; i < 9; i++ {
		name := fmt.Sprintf("file%d.txt", i)
		if i%3 == 0 {
			parts = append(parts, fmt.Sprintf(`{"filename":%q,"content_base64":%q}`, name, base64.StdEncoding.EncodeToString([]byte(name))))
			continue
		}
		id := fmt.Sprintf("att%d", i)
		svc.addAttachment("msg", id, []byte(name))
		parts = append(parts, fmt.Sprintf(`{"filename":%q,"source_message_id":"msg","source_attachment_id":%q}`, name, id))
	}

	atts, err := ResolveAttachments(context.Background(), svc, "["+strings.Join(parts, ",")+"]")
	require.NoError(t, err)
	require.Len(t, atts, 9)
	for i, att := range atts {
		name := fmt.Sprintf("file%d.txt", i)
		assert.Equal(t, name, att.Filename)
		assert.Equal(t, []byte(name), att.Data)
	}
}

func TestResolveAttachments_BoundedConcurrency(t *testing.T) {
	svc := newFakeMailService()
	svc.gate = make(chan struct{})

	var descs []AttachmentDescriptor
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("att%d", i)
		svc.addAttachment("msg", id, []byte(id))
		descs = append(descs, ReferenceAttachment{Filename: id + ".txt", SourceMessageID: "msg", SourceAttachmentID: id})
	}

	done := make(chan error, 1)
	go func() {
		_, err := ResolveDescriptors(context.Background(), svc, descs)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return svc.inFlight.Load() == DefaultFetchConcurrency
	}, 2*time.Second, 5*time.Millisecond)
	close(svc.gate)

	require.NoError(t, <-done)
	assert.LessOrEqual(t, svc.maxFlight.Load(), int32(DefaultFetchConcurrency))
	assert.EqualValues(t, 10, svc.fetches.Load())
}

func TestResolveAttachments_FetchFailureAborts(t *testing.T) {
	svc := newFakeMailService()
	svc.addAttachment("msg", "ok", []byte("fine"))
	svc.fetchErr[attachmentKey("msg", "bad")] = errors.New("connection reset")

	atts, err := ResolveAttachments(context.Background(), svc, `[
		{"filename":"a.txt","content_base64":"aGk="},
		{"filename":"ok.txt","source_message_id":"msg","source_attachment_id":"ok"},
		{"filename":"bad.txt","source_message_id":"msg","source_attachment_id":"bad"}
	]`)
	require.Error(t, err)
	assert.Nil(t, atts)
	assert.True(t, errors.Is(err, ErrRemoteService))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestResolveAttachments_InlineFailureAbortsFetches(t *testing.T) {
	svc := newFakeMailService()
	svc.addAttachment("msg", "ok", []byte("fine"))

	atts, err := ResolveAttachments(context.Background(), svc, `[
		{"filename":"ok.txt","source_message_id":"msg","source_attachment_id":"ok"},
		{"filename":"broken.txt","content_base64":"%%%"}
	]`)
	require.Error(t, err)
	assert.Nil(t, atts)
	assert.True(t, errors.Is(err, ErrInvalidEncoding))
}

func TestResolveAttachments_FirstFailureInInputOrder(t *testing.T) {
	tests := []struct {
		name        string
		spec        string
		wantErr     error
		errContains string
		fetches     int32
	}{
		{
			name: "reference before bad inline",
			spec: `[
				{"filename":"a.pdf","source_message_id":"msg","source_attachment_id":"gone"},
				{"filename":"b.pdf","content_base64":"!!!"}
			]`,
			wantErr:     ErrRemoteService,
			errContains: `"a.pdf"`,
			fetches:     1,
		},
		{
			name: "two failing references",
			spec: `[
				{"filename":"first.pdf","source_message_id":"msg","source_attachment_id":"gone"},
				{"filename":"second.pdf","source_message_id":"msg","source_attachment_id":"gone2"}
			]`,
			wantErr:     ErrRemoteService,
			errContains: `"first.pdf"`,
			fetches:     2,
		},
		{
			name: "bad inline before reference",
			spec: `[
				{"filename":"b.pdf","content_base64":"!!!"},
				{"filename":"a.pdf","source_message_id":"msg","source_attachment_id":"gone"}
			]`,
			wantErr:     ErrInvalidEncoding,
			errContains: `"b.pdf"`,
			fetches:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeMailService()
			svc.fetchErr[attachmentKey("msg", "gone")] = errors.New("connection reset")
			svc.fetchErr[attachmentKey("msg", "gone2")] = errors.New("connection refused")

			// Repeat so a scheduling dependent result would show up.
			for i := 0; i < 20; i++ {
				atts, err := ResolveAttachments(context.Background(), svc, tt.spec)
				require.Error(t, err)
				assert.Nil(t, atts)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Contains(t, err.Error(), tt.errContains)
			}
			assert.Equal(t, tt.fetches*20, svc.fetches.Load())
		})
	}
}

func TestResolveAttachments_ReferenceTooLarge(t *testing.T) {
	svc := newFakeMailService()
	svc.attachments[attachmentKey("msg", "huge")] = storedAttachment{data: b64url("x"), size: MaxAttachmentSize + 1}

	_, err := ResolveAttachments(context.Background(), svc, `[{"filename":"huge.iso","source_message_id":"msg","source_attachment_id":"huge"}]`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSizeLimitExceeded))
}

func TestResolveAttachments_ReferenceWithoutFetcher(t *testing.T) {
	_, err := ResolveAttachments(context.Background(), nil, `[{"filename":"a.txt","source_message_id":"m","source_attachment_id":"a"}]`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemoteService))
}

func TestCheckAttachmentSize(t *testing.T) {
	assert.NoError(t, CheckAttachmentSize("a", 0))
	assert.NoError(t, CheckAttachmentSize("a", MaxAttachmentSize))

	err := CheckAttachmentSize("a", MaxAttachmentSize+1)
	var sizeErr *SizeLimitExceededError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, MaxAttachmentSize+1, sizeErr.Size)
	assert.Equal(t, MaxAttachmentSize, sizeErr.Limit)
}

func TestSanitizeAttachmentFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{filename: "document.pdf", want: "document.pdf"},
		{filename: "test\r\nfile.pdf", want: "testfile.pdf"},
		{filename: "a\nb\rc.txt", want: "abc.txt"},
		{filename: "Größe.pdf", want: "Größe.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := SanitizeAttachmentFilename(tt.filename); got != tt.want {
				t.Errorf("SanitizeAttachmentFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}
