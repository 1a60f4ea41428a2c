package gmail_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/workspace-mcp/internal/gmail"
	"github.com/teemow/workspace-mcp/internal/instrumentation"
	"github.com/teemow/workspace-mcp/internal/logging"
	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/common"
)

const attachmentsDescription = `JSON array of attachments. Each entry has a "filename", an optional "mime_type" and either "content_base64" (standard base64) or "source_message_id" plus "source_attachment_id" to reuse an attachment already in the mailbox. Attachments are limited to 25MB each.`

func recipientOptions(toRequired bool) []mcp.ToolOption {
	toOpts := []mcp.PropertyOption{mcp.Description("Recipient email addresses (comma separated)")}
	if toRequired {
		toOpts = append(toOpts, mcp.Required())
	}
	return []mcp.ToolOption{
		mcp.WithString("to", toOpts...),
		mcp.WithString("cc",
			mcp.Description("CC email addresses (comma separated)"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC email addresses (comma separated)"),
		),
	}
}

func composeTool(name, description string, toRequired bool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		accountOption(),
	}
	opts = append(opts, recipientOptions(toRequired)...)
	opts = append(opts,
		mcp.WithString("subject",
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Description("Email body"),
		),
		mcp.WithString("bodyFormat",
			mcp.Description("Body format: 'plain' (default) or 'html'"),
		),
		mcp.WithString("threadId",
			mcp.Description("Thread to add the message to when replying"),
		),
		mcp.WithString("inReplyTo",
			mcp.Description("Message-ID header of the message being replied to"),
		),
		mcp.WithString("references",
			mcp.Description("References header for threading replies"),
		),
		mcp.WithString("attachments",
			mcp.Description(attachmentsDescription),
		),
	)
	return mcp.NewTool(name, opts...)
}

func sendMessageTool() mcp.Tool {
	return composeTool("gmail_send_message", "Send an email, optionally with attachments, through Gmail", true)
}

func draftMessageTool() mcp.Tool {
	return composeTool("gmail_draft_message", "Save an email, optionally with attachments, as a Gmail draft", false)
}

func forwardMessageTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Forward an existing Gmail message to new recipients"),
		accountOption(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to forward"),
		),
	}
	opts = append(opts, recipientOptions(true)...)
	opts = append(opts,
		mcp.WithString("note",
			mcp.Description("Text written above the forwarded message"),
		),
		mcp.WithString("bodyFormat",
			mcp.Description("Body format: 'plain' (default) or 'html'"),
		),
		mcp.WithBoolean("includeAttachments",
			mcp.Description("Forward the original message's attachments (default: true)"),
		),
	)
	return mcp.NewTool("gmail_forward_message", opts...)
}

func handleSendMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	req, errResult := composeRequestFromArgs(request, true)
	if errResult != nil {
		return errResult, nil
	}
	return compose(ctx, request, sc, "send", func(mb gmail.Mailbox) (*gmail.ComposeResult, error) {
		return gmail.Send(ctx, mb, req)
	})
}

func handleDraftMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	req, errResult := composeRequestFromArgs(request, false)
	if errResult != nil {
		return errResult, nil
	}
	return compose(ctx, request, sc, "create draft", func(mb gmail.Mailbox) (*gmail.ComposeResult, error) {
		return gmail.Draft(ctx, mb, req)
	})
}

func handleForwardMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	messageID := request.GetString("messageId", "")
	if messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	to := splitAddresses(request.GetString("to", ""))
	if len(to) == 0 {
		return mcp.NewToolResultError("'to' field is required"), nil
	}

	format, err := gmail.ParseBodyFormat(request.GetString("bodyFormat", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := gmail.ForwardOptions{
		To:                 to,
		Cc:                 splitAddresses(request.GetString("cc", "")),
		Bcc:                splitAddresses(request.GetString("bcc", "")),
		Note:               request.GetString("note", ""),
		BodyFormat:         format,
		IncludeAttachments: request.GetBool("includeAttachments", true),
	}

	return compose(ctx, request, sc, "forward", func(mb gmail.Mailbox) (*gmail.ComposeResult, error) {
		return gmail.Forward(ctx, mb, messageID, opts)
	})
}

// compose runs fn against the caller's mailbox and renders its result,
// recording attachment metrics on the way.
func compose(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, action string, fn func(gmail.Mailbox) (*gmail.ComposeResult, error)) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments())

	mb, errResult := mailboxFor(ctx, sc, account)
	if errResult != nil {
		return errResult, nil
	}

	result, err := fn(mb)
	if err != nil {
		if reason, ok := attachmentFailureReason(err); ok {
			sc.Metrics().RecordAttachmentFailure(ctx, reason)
			sc.Logger().Debug("attachment resolution failed",
				logging.Account(account),
				slog.String("reason", reason),
				logging.Err(err))
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s message: %v", action, err)), nil
	}

	for _, att := range result.Attachments {
		sc.Metrics().RecordAttachmentResolved(ctx, att.Source, att.Size)
	}
	trace.SpanFromContext(ctx).SetAttributes(
		instrumentation.NewSpanAttributeBuilder().WithAttachmentCount(len(result.Attachments)).Build()...)
	sc.Logger().Debug("message composed",
		logging.Operation(action),
		logging.Account(account),
		logging.AttachmentCount(len(result.Attachments)))

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format output: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func composeRequestFromArgs(request mcp.CallToolRequest, toRequired bool) (gmail.ComposeRequest, *mcp.CallToolResult) {
	to := splitAddresses(request.GetString("to", ""))
	if toRequired && len(to) == 0 {
		return gmail.ComposeRequest{}, mcp.NewToolResultError("'to' field is required")
	}

	format, err := gmail.ParseBodyFormat(request.GetString("bodyFormat", ""))
	if err != nil {
		return gmail.ComposeRequest{}, mcp.NewToolResultError(err.Error())
	}

	attachments, err := attachmentsArg(request.GetArguments()["attachments"])
	if err != nil {
		return gmail.ComposeRequest{}, mcp.NewToolResultError(err.Error())
	}

	return gmail.ComposeRequest{
		To:          to,
		Cc:          splitAddresses(request.GetString("cc", "")),
		Bcc:         splitAddresses(request.GetString("bcc", "")),
		Subject:     request.GetString("subject", ""),
		Body:        request.GetString("body", ""),
		BodyFormat:  format,
		ThreadID:    request.GetString("threadId", ""),
		InReplyTo:   request.GetString("inReplyTo", ""),
		References:  request.GetString("references", ""),
		Attachments: attachments,
	}, nil
}

// attachmentsArg accepts the attachment spec as a JSON string or as an
// already decoded array, which some clients send instead.
func attachmentsArg(v interface{}) (string, error) {
	switch a := v.(type) {
	case nil:
		return "", nil
	case string:
		return a, nil
	case []interface{}:
		data, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("invalid attachments: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("attachments must be a JSON array")
	}
}

// attachmentFailureReason classifies err for mcp_attachment_failures_total.
// Errors unrelated to attachments are not counted.
func attachmentFailureReason(err error) (string, bool) {
	var remote *gmail.RemoteServiceError
	switch {
	case errors.Is(err, gmail.ErrMalformedInput), errors.Is(err, gmail.ErrMissingField):
		return instrumentation.ReasonMalformed, true
	case errors.Is(err, gmail.ErrInvalidEncoding):
		return instrumentation.ReasonEncoding, true
	case errors.Is(err, gmail.ErrSizeLimitExceeded):
		return instrumentation.ReasonSizeLimit, true
	case errors.As(err, &remote) && remote.Op == "attachments.get":
		return instrumentation.ReasonRemote, true
	default:
		return "", false
	}
}

func splitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
