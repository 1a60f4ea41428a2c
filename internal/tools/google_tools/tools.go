package google_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/common"
)

// RegisterGoogleTools registers the Google OAuth tools. They need no scope
// and are registered regardless of the permission config.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) []string {
	accountOption := mcp.WithString("account",
		mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
	)

	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize Google Workspace access for a specific account. Only the scopes allowed by the server's permission config are requested."),
		accountOption,
	)

	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Google authentication for a specific account"),
		accountOption,
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)

	getPermissionsTool := mcp.NewTool("google_get_permissions",
		mcp.WithDescription("Show the permission levels this server was started with and the OAuth scopes they grant"),
	)

	return common.Register(s, sc,
		common.ScopedTool{Tool: getAuthURLTool, Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, sc)
		}},
		common.ScopedTool{Tool: saveAuthCodeTool, Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc)
		}},
		common.ScopedTool{Tool: getPermissionsTool, Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetPermissions(ctx, request, sc)
		}},
	)
}

func handleGetAuthURL(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	auth := sc.Authenticator()
	if auth == nil {
		return mcp.NewToolResultError("Google OAuth is not configured on this server"), nil
	}

	account := common.GetAccountFromArgs(request.GetArguments())
	authURL := auth.AuthURL(account)

	result := fmt.Sprintf(`To authorize Google Workspace access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant the requested access
4. Copy the authorization code

5. Call the google_save_auth_code tool with the code and account name to complete authentication`, account, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	auth := sc.Authenticator()
	if auth == nil {
		return mcp.NewToolResultError("Google OAuth is not configured on this server"), nil
	}

	account := common.GetAccountFromArgs(request.GetArguments())

	authCode := strings.TrimSpace(request.GetString("authCode", ""))
	if authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	if err := auth.Exchange(ctx, account, authCode); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
	}

	// Drop a mailbox created before authorization so the new token is used.
	sc.ForgetMailbox(account)

	return mcp.NewToolResultText(fmt.Sprintf("✅ Authorization successful for account '%s'! Google token saved. You can now use the Gmail tools with this account.", account)), nil
}

func handleGetPermissions(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	perms := sc.Permissions()

	var b strings.Builder
	fmt.Fprintf(&b, "Permissions: %s\n", perms.String())

	scopes, restricted := perms.AllowedScopes()
	if !restricted {
		b.WriteString("All scopes are allowed.\n")
		return mcp.NewToolResultText(b.String()), nil
	}

	fmt.Fprintf(&b, "Allowed scopes (%d):\n", len(scopes))
	for _, scope := range scopes.Sorted() {
		fmt.Fprintf(&b, "  - %s\n", scope)
	}
	return mcp.NewToolResultText(b.String()), nil
}
