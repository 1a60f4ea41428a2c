package gmail_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workspace-mcp/internal/gmail"
	"github.com/teemow/workspace-mcp/internal/google"
	"github.com/teemow/workspace-mcp/internal/permissions"
	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/batch"
	"github.com/teemow/workspace-mcp/internal/tools/common"
)

// DefaultMaxThreads is the default page size of gmail_list_threads.
const DefaultMaxThreads = 10

func accountOption() mcp.ToolOption {
	return mcp.WithString("account",
		mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
	)
}

// Tools returns every Gmail tool with the scope it requires.
func Tools(sc *server.ServerContext) []common.ScopedTool {
	return []common.ScopedTool{
		{Tool: listThreadsTool(), Scope: permissions.GmailReadonly, Handler: withContext(sc, handleListThreads)},
		{Tool: archiveThreadsTool(), Scope: permissions.GmailModify, Handler: withContext(sc, handleArchiveThreads)},
		{Tool: listAttachmentsTool(), Scope: permissions.GmailReadonly, Handler: withContext(sc, handleListAttachments)},
		{Tool: getAttachmentTool(), Scope: permissions.GmailReadonly, Handler: withContext(sc, handleGetAttachment)},
		{Tool: getMessageBodiesTool(), Scope: permissions.GmailReadonly, Handler: withContext(sc, handleGetMessageBodies)},
		{Tool: draftMessageTool(), Scope: permissions.GmailCompose, Handler: withContext(sc, handleDraftMessage)},
		{Tool: sendMessageTool(), Scope: permissions.GmailSend, Handler: withContext(sc, handleSendMessage)},
		{Tool: forwardMessageTool(), Scope: permissions.GmailSend, Handler: withContext(sc, handleForwardMessage)},
	}
}

// RegisterGmailTools registers the Gmail tools the active permission config
// allows and returns their names.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) []string {
	return common.Register(s, sc, Tools(sc)...)
}

type handlerFunc func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error)

func withContext(sc *server.ServerContext, h handlerFunc) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return h(ctx, request, sc)
	}
}

// mailboxFor returns the account's mailbox, or a tool error explaining how
// to authorize the account.
func mailboxFor(ctx context.Context, sc *server.ServerContext, account string) (gmail.Mailbox, *mcp.CallToolResult) {
	mb, err := sc.Mailbox(ctx, account)
	if err == nil {
		return mb, nil
	}

	if errors.Is(err, google.ErrNoToken) && sc.Authenticator() != nil {
		authURL := sc.Authenticator().AuthURL(account)
		return nil, mcp.NewToolResultError(fmt.Sprintf(`Google OAuth token not found for account "%s". To authorize access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant the requested access
4. Copy the authorization code

5. Provide the authorization code to your AI agent
   The agent will use the google_save_auth_code tool with account="%s" to complete authentication.

Note: You only need to authorize once. The tokens will be automatically refreshed.`, account, authURL, account))
	}

	return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to create Gmail client for account %s: %v", account, err))
}

func listThreadsTool() mcp.Tool {
	return mcp.NewTool("gmail_list_threads",
		mcp.WithDescription("List Gmail threads matching a query"),
		accountOption(),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query (e.g., 'in:inbox', 'from:user@example.com')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
	)
}

func archiveThreadsTool() mcp.Tool {
	return mcp.NewTool("gmail_archive_threads",
		mcp.WithDescription("Archive one or more Gmail threads by removing them from the inbox"),
		accountOption(),
		mcp.WithString("threadIds",
			mcp.Required(),
			mcp.Description("Thread ID, comma separated thread IDs or an array of thread IDs to archive"),
		),
	)
}

func handleListThreads(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments())

	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	maxResults := int64(request.GetInt("maxResults", DefaultMaxThreads))
	if maxResults <= 0 {
		maxResults = DefaultMaxThreads
	}

	mb, errResult := mailboxFor(ctx, sc, account)
	if errResult != nil {
		return errResult, nil
	}

	threads, err := mb.ListThreads(ctx, query, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list threads: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d threads:\n", len(threads))
	for i, thread := range threads {
		fmt.Fprintf(&b, "%d. Thread ID: %s (Snippet: %s)\n", i+1, thread.Id, thread.Snippet)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleArchiveThreads(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	threadIDs, err := batch.ParseIDs(args["threadIds"], "threadIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mb, errResult := mailboxFor(ctx, sc, account)
	if errResult != nil {
		return errResult, nil
	}

	results := batch.Process(ctx, threadIDs, func(ctx context.Context, threadID string) (string, error) {
		if err := mb.ArchiveThread(ctx, threadID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Thread %s archived successfully", threadID), nil
	})

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}
