package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Format: "json"})
	require.NoError(t, err)

	logger.Debug("hidden")
	WithTool(logger, "gmail_send_message").Info("sent", AttachmentCount(2), Permissions(stringer("gmail:send")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug must be filtered at info level")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "sent", entry["msg"])
	assert.Equal(t, "gmail_send_message", entry[KeyTool])
	assert.EqualValues(t, 2, entry[KeyAttachmentCount])
	assert.Equal(t, "gmail:send", entry[KeyPermissions])
}

func TestNew_Debug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Debug: true})
	require.NoError(t, err)

	logger.Debug("visible", Scope("https://www.googleapis.com/auth/gmail.readonly"))
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "scope=https://www.googleapis.com/auth/gmail.readonly")
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Format: "xml"})
	assert.Error(t, err)
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{name: "operation", attr: Operation("messages.send"), key: KeyOperation, want: "messages.send"},
		{name: "service", attr: Service("gmail"), key: KeyService, want: "gmail"},
		{name: "account", attr: Account("work"), key: KeyAccount, want: "work"},
		{name: "tool", attr: Tool("gmail_draft_message"), key: KeyTool, want: "gmail_draft_message"},
		{name: "status", attr: Status(StatusError), key: KeyStatus, want: "error"},
		{name: "duration", attr: Duration(1500 * time.Millisecond), key: KeyDuration, want: "1.5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.String())
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "boom", attr.Value.String())

	empty := Err(nil)
	assert.Equal(t, slog.KindGroup, empty.Value.Kind())
	assert.Empty(t, empty.Value.Group())
}

func TestAnonymizeEmail(t *testing.T) {
	assert.Equal(t, "", AnonymizeEmail(""))

	a := AnonymizeEmail("jane@example.com")
	assert.True(t, strings.HasPrefix(a, "user:"))
	assert.Len(t, a, len("user:")+16)
	assert.NotContains(t, a, "jane")
	assert.Equal(t, a, AnonymizeEmail("jane@example.com"))
	assert.NotEqual(t, a, AnonymizeEmail("john@example.com"))

	assert.Equal(t, a, UserHash("jane@example.com").Value.String())
}

func TestSanitizeToken(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeToken(""))
	assert.Equal(t, "[token:11 chars]", SanitizeToken("ya29.secret"))
}
