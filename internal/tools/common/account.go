package common

import (
	"github.com/teemow/workspace-mcp/internal/google"
)

// GetAccountFromArgs returns the "account" argument of a tool call, or
// "default" when it is missing or empty.
func GetAccountFromArgs(args map[string]interface{}) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return google.DefaultAccount
}
