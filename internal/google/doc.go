// Package google handles OAuth2 authorization for Google APIs.
//
// An Authenticator requests exactly the scopes the active permission
// configuration allows (see ScopesFor), exchanges authorization codes for
// tokens and hands out authenticated HTTP clients per account. Tokens are
// kept in a TokenProvider; StoreTokenProvider backs it with an mcp-oauth
// storage.TokenStore. Refreshed tokens are written back to the provider.
package google
