package gmail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func originalMessage(subject string) *gmail.Message {
	return &gmail.Message{
		Id:       "orig1",
		ThreadId: "thread-orig",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Alice <alice@example.com>"},
				{Name: "To", Value: "bob@example.com"},
				{Name: "Subject", Value: subject},
				{Name: "Date", Value: "Mon, 1 Jan 2024 10:00:00 +0000"},
			},
			Parts: []*gmail.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmail.MessagePart{
						{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("Original body")}},
						{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64url("<p>Original body</p>")}},
					},
				},
				{
					PartId:   "2",
					MimeType: "application/pdf",
					Filename: "report.pdf",
					Body:     &gmail.MessagePartBody{AttachmentId: "att-report", Size: 9},
				},
				{
					PartId:   "3",
					MimeType: "text/plain",
					Filename: "notes.txt",
					Body:     &gmail.MessagePartBody{Data: b64url("tiny"), Size: 4},
				},
			},
		},
	}
}

func TestForwardSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{subject: "Quarterly Report", want: "Fwd: Quarterly Report"},
		{subject: "Fwd: Already forwarded", want: "Fwd: Already forwarded"},
		{subject: "FWD: shouting", want: "Fwd: FWD: shouting"},
		{subject: "", want: "Fwd: "},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, ForwardSubject(tt.subject))
		})
	}
}

func TestBuildForward_PlainText(t *testing.T) {
	env, err := BuildForward(context.Background(), nil, originalMessage("Quarterly Report"), ForwardOptions{
		To:   []string{"carol@example.com"},
		Note: "FYI",
	})
	require.NoError(t, err)

	assert.Equal(t, "Fwd: Quarterly Report", env.Subject)
	assert.Equal(t, []string{"carol@example.com"}, env.To)
	assert.Empty(t, env.Attachments)
	assert.Empty(t, env.ThreadID)

	want := strings.Join([]string{
		"FYI",
		"",
		"---------- Forwarded message ---------",
		"From: Alice <alice@example.com>",
		"Date: Mon, 1 Jan 2024 10:00:00 +0000",
		"Subject: Quarterly Report",
		"To: bob@example.com",
		"",
		"Original body",
	}, "\n")
	assert.Equal(t, want, env.Body)
}

func TestBuildForward_HTML(t *testing.T) {
	env, err := BuildForward(context.Background(), nil, originalMessage("Fwd: Already forwarded"), ForwardOptions{
		To:         []string{"carol@example.com"},
		Note:       "<b>FYI</b>",
		BodyFormat: BodyFormatHTML,
	})
	require.NoError(t, err)

	assert.Equal(t, "Fwd: Already forwarded", env.Subject)
	assert.True(t, strings.HasPrefix(env.Body, "<b>FYI</b><br><br>---------- Forwarded message ---------<br>"))
	assert.Contains(t, env.Body, "From: Alice &lt;alice@example.com&gt;<br>")
	assert.True(t, strings.HasSuffix(env.Body, "<p>Original body</p>"))
}

func TestBuildForward_HTMLFallsBackToText(t *testing.T) {
	msg := &gmail.Message{
		Id: "m",
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers:  []*gmail.MessagePartHeader{{Name: "Subject", Value: "Plain"}},
			Body:     &gmail.MessagePartBody{Data: b64url("line one\nline <two>")},
		},
	}

	env, err := BuildForward(context.Background(), nil, msg, ForwardOptions{To: []string{"x@example.com"}, BodyFormat: BodyFormatHTML})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(env.Body, "line one<br>line &lt;two&gt;"))
}

func TestBuildForward_IncludeAttachments(t *testing.T) {
	svc := newFakeMailService()
	svc.addAttachment("orig1", "att-report", []byte("%PDF-data"))

	env, err := BuildForward(context.Background(), svc, originalMessage("Quarterly Report"), ForwardOptions{
		To:                 []string{"carol@example.com"},
		IncludeAttachments: true,
	})
	require.NoError(t, err)

	require.Len(t, env.Attachments, 2)
	assert.Equal(t, "report.pdf", env.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", env.Attachments[0].MimeType)
	assert.Equal(t, []byte("%PDF-data"), env.Attachments[0].Data)
	assert.Equal(t, SourceReference, env.Attachments[0].Source)

	assert.Equal(t, "notes.txt", env.Attachments[1].Filename)
	assert.Equal(t, []byte("tiny"), env.Attachments[1].Data)
	assert.Equal(t, SourceInline, env.Attachments[1].Source)
	assert.EqualValues(t, 1, svc.fetches.Load())
}

func TestBuildForward_AttachmentsNotFetchedWithoutFlag(t *testing.T) {
	svc := newFakeMailService()

	env, err := BuildForward(context.Background(), svc, originalMessage("Quarterly Report"), ForwardOptions{To: []string{"carol@example.com"}})
	require.NoError(t, err)
	assert.Empty(t, env.Attachments)
	assert.EqualValues(t, 0, svc.fetches.Load())
}

func TestBuildForward_AttachmentFetchFails(t *testing.T) {
	svc := newFakeMailService()
	svc.fetchErr[attachmentKey("orig1", "att-report")] = errors.New("quota exceeded")

	_, err := BuildForward(context.Background(), svc, originalMessage("Quarterly Report"), ForwardOptions{
		To:                 []string{"carol@example.com"},
		IncludeAttachments: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemoteService))
}

func TestForwardDescriptors(t *testing.T) {
	descs := ForwardDescriptors(originalMessage("x"))
	require.Len(t, descs, 2)
	assert.Equal(t, ReferenceAttachment{
		Filename:           "report.pdf",
		MimeType:           "application/pdf",
		SourceMessageID:    "orig1",
		SourceAttachmentID: "att-report",
	}, descs[0])
	assert.Equal(t, InlineAttachment{Filename: "notes.txt", MimeType: "text/plain", ContentBase64: "dGlueQ=="}, descs[1])
}
