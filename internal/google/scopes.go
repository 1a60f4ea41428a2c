package google

import (
	"github.com/teemow/workspace-mcp/internal/permissions"
)

// IdentityScopes are always requested so the granted account can be identified.
var IdentityScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
}

// DefaultOAuthScopes are requested when no permission configuration is active.
//
// The scopes provide access to:
//   - Gmail: read, organize, compose, send, settings
//   - Google Drive: full access
//   - Google Docs and Sheets: read and write
//   - Google Calendar: full access
//   - Google Tasks: full access
//   - Contacts: full access
var DefaultOAuthScopes = []string{
	"https://mail.google.com/", // Full Gmail access (includes send)
	permissions.GmailReadonly,
	permissions.GmailModify,
	permissions.GmailCompose,
	permissions.GmailSend,
	permissions.GmailSettingsBasic,

	permissions.Drive,
	permissions.DocsWrite,
	permissions.SheetsWrite,
	permissions.Calendar,
	permissions.Tasks,
	permissions.Contacts,
}

// ScopesFor returns the scopes to request for cfg: the identity scopes
// followed by either the sorted scopes cfg allows or, when cfg is nil,
// DefaultOAuthScopes.
func ScopesFor(cfg *permissions.Config) []string {
	scopes := append([]string(nil), IdentityScopes...)

	allowed, restricted := cfg.AllowedScopes()
	if !restricted {
		return append(scopes, DefaultOAuthScopes...)
	}
	return append(scopes, allowed.Sorted()...)
}
