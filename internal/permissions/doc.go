// Package permissions resolves coarse "service:level" grants into the exact
// set of Google OAuth scopes to request.
//
// Every service has an ordered ladder of levels, for example
//
//	gmail: readonly < organize < drafts < send < full
//
// and a level grants its own scopes plus the scopes of all levels below it.
// Operators pick one level per service:
//
//	cfg, err := permissions.ParseSpecs([]string{"gmail:organize", "drive:readonly"})
//
// The resulting *Config is built once at startup and passed explicitly to
// the OAuth layer (which scopes to request) and to the tool layer (which
// tools to expose). A nil *Config means unrestricted mode.
package permissions
