// Package logging provides structured logging helpers for workspace-mcp.
//
// Attribute constructors keep key names consistent across packages:
//
//	logger := logging.WithTool(slog.Default(), "gmail_send_message")
//	logger.Info("message sent",
//	    logging.AttachmentCount(2),
//	    logging.Status(logging.StatusSuccess))
//
// Account identifiers that may be email addresses are logged through
// UserHash, and OAuth tokens through SanitizeToken, never verbatim.
package logging
