// Package google_tools provides MCP tools for Google OAuth authentication.
//
// The tools let an AI assistant authorize additional Google accounts:
//   - google_get_auth_url: Get the authorization URL for an account
//   - google_save_auth_code: Exchange the code the user copied for a token
//   - google_get_permissions: Show the active permission levels and scopes
//
// The authorization URL only requests the scopes the server's permission
// config allows, so a server started with gmail:readonly can never obtain a
// token able to send mail.
//
// The OAuth flow:
//  1. A Gmail tool reports that the account has no token, or the agent calls
//     google_get_auth_url directly
//  2. User visits the URL and authorizes access
//  3. User provides the authorization code
//  4. Call google_save_auth_code with the code to save the token
//
// Saved tokens are refreshed automatically as needed.
package google_tools
