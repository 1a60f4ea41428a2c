package gmail_tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/workspace-mcp/internal/gmail"
	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/batch"
	"github.com/teemow/workspace-mcp/internal/tools/common"
)

func listAttachmentsTool() mcp.Tool {
	return mcp.NewTool("gmail_list_attachments",
		mcp.WithDescription("List all attachments in a Gmail message. The returned IDs can be used as attachment references when sending or drafting."),
		accountOption(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the Gmail message"),
		),
	)
}

func getAttachmentTool() mcp.Tool {
	return mcp.NewTool("gmail_get_attachment",
		mcp.WithDescription("Get the content of an attachment"),
		accountOption(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the Gmail message"),
		),
		mcp.WithString("attachmentId",
			mcp.Required(),
			mcp.Description("The ID of the attachment"),
		),
		mcp.WithString("encoding",
			mcp.Description("Encoding format: 'base64' (default) or 'text'"),
		),
	)
}

func getMessageBodiesTool() mcp.Tool {
	return mcp.NewTool("gmail_get_message_bodies",
		mcp.WithDescription("Extract text or HTML body from one or more Gmail messages"),
		accountOption(),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message ID, comma separated message IDs or an array of message IDs"),
		),
		mcp.WithString("format",
			mcp.Description("Body format: 'text' (default) or 'html'"),
		),
	)
}

type attachmentOutput struct {
	AttachmentID string `json:"attachmentId,omitempty"`
	PartID       string `json:"partId,omitempty"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	SizeHuman    string `json:"sizeHuman"`
	Embedded     bool   `json:"embedded,omitempty"`
}

func handleListAttachments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID := request.GetString("messageId", "")
	if messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	mb, errResult := mailboxFor(ctx, sc, common.GetAccountFromArgs(args))
	if errResult != nil {
		return errResult, nil
	}

	msg, err := mb.GetMessage(ctx, messageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list attachments: %v", err)), nil
	}

	attachments := gmail.Attachments(msg)
	if len(attachments) == 0 {
		return mcp.NewToolResultText("No attachments found in message"), nil
	}

	outputs := make([]attachmentOutput, len(attachments))
	for i, att := range attachments {
		outputs[i] = attachmentOutput{
			AttachmentID: att.AttachmentID,
			PartID:       att.PartID,
			Filename:     att.Filename,
			MimeType:     att.MimeType,
			Size:         att.Size,
			SizeHuman:    formatSize(att.Size),
			Embedded:     att.AttachmentID == "",
		}
	}

	jsonBytes, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format output: %v", err)), nil
	}

	result := fmt.Sprintf("Found %d attachment(s):\n%s", len(attachments), string(jsonBytes))
	return mcp.NewToolResultText(result), nil
}

func handleGetAttachment(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID := request.GetString("messageId", "")
	if messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}
	attachmentID := request.GetString("attachmentId", "")
	if attachmentID == "" {
		return mcp.NewToolResultError("attachmentId is required"), nil
	}

	encoding := request.GetString("encoding", "base64")
	if encoding == "" {
		encoding = "base64"
	}
	if encoding != "base64" && encoding != "text" {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid encoding '%s', must be 'base64' or 'text'", encoding)), nil
	}

	mb, errResult := mailboxFor(ctx, sc, common.GetAccountFromArgs(args))
	if errResult != nil {
		return errResult, nil
	}

	encoded, _, err := mb.GetAttachment(ctx, messageID, attachmentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get attachment: %v", err)), nil
	}
	data, err := gmail.DecodeData(encoded)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to decode attachment: %v", err)), nil
	}

	if encoding == "text" {
		if !utf8.Valid(data) {
			return mcp.NewToolResultError("Attachment is not valid UTF-8 text, use encoding 'base64'"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Attachment content (text, %d bytes):\n%s", len(data), data)), nil
	}

	// Standard base64 so the output can be passed back as an inline attachment.
	result := fmt.Sprintf("Attachment content (base64, %d bytes):\n%s", len(data), base64.StdEncoding.EncodeToString(data))
	return mcp.NewToolResultText(result), nil
}

func handleGetMessageBodies(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageIDs, err := batch.ParseIDs(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	format := request.GetString("format", "text")
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "html" {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid format '%s', must be 'text' or 'html'", format)), nil
	}

	mb, errResult := mailboxFor(ctx, sc, common.GetAccountFromArgs(args))
	if errResult != nil {
		return errResult, nil
	}

	results := batch.Process(ctx, messageIDs, func(ctx context.Context, messageID string) (string, error) {
		msg, err := mb.GetMessage(ctx, messageID)
		if err != nil {
			return "", err
		}
		body, err := gmail.MessageBody(msg, format)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Message body (%s, %d bytes):\n%s", format, len(body), body), nil
	})

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

// formatSize formats a byte size into human-readable format
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
