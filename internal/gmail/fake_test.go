package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	gmail "google.golang.org/api/gmail/v1"
)

type storedAttachment struct {
	data string
	size int64
}

// fakeMailService is an in-memory MailService.
type fakeMailService struct {
	mu          sync.Mutex
	attachments map[string]storedAttachment
	messages    map[string]*gmail.Message
	fetchErr    map[string]error
	sendErr     error

	fetches   atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	gate      chan struct{}

	sent   []sentMessage
	drafts []sentMessage
}

type sentMessage struct {
	raw      string
	threadID string
}

func newFakeMailService() *fakeMailService {
	return &fakeMailService{
		attachments: map[string]storedAttachment{},
		messages:    map[string]*gmail.Message{},
		fetchErr:    map[string]error{},
	}
}

func attachmentKey(messageID, attachmentID string) string {
	return messageID + "/" + attachmentID
}

func (f *fakeMailService) addAttachment(messageID, attachmentID string, data []byte) {
	f.attachments[attachmentKey(messageID, attachmentID)] = storedAttachment{
		data: base64.URLEncoding.EncodeToString(data),
		size: int64(len(data)),
	}
}

func (f *fakeMailService) GetAttachment(ctx context.Context, messageID, attachmentID string) (string, int64, error) {
	f.fetches.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxFlight.Load()
		if n <= cur || f.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", 0, ctx.Err()
		}
	}

	key := attachmentKey(messageID, attachmentID)
	if err := f.fetchErr[key]; err != nil {
		return "", 0, err
	}
	att, ok := f.attachments[key]
	if !ok {
		return "", 0, fmt.Errorf("attachment %s not found", key)
	}
	return att.data, att.size, nil
}

func (f *fakeMailService) GetMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, &RemoteServiceError{Op: "messages.get", Err: errors.New("404 not found")}
	}
	return msg, nil
}

func (f *fakeMailService) Send(ctx context.Context, raw, threadID string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{raw: raw, threadID: threadID})
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func (f *fakeMailService) CreateDraft(ctx context.Context, raw, threadID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, sentMessage{raw: raw, threadID: threadID})
	return fmt.Sprintf("draft-%d", len(f.drafts)), nil
}

func b64url(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}
