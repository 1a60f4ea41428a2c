package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation       = "operation"
	KeyService         = "service"
	KeyAccount         = "account"
	KeyUserHash        = "user_hash"
	KeyDuration        = "duration"
	KeyStatus          = "status"
	KeyError           = "error"
	KeyTool            = "tool"
	KeyScope           = "scope"
	KeyPermissions     = "permissions"
	KeyAttachmentCount = "attachment_count"
)

// Status values for consistent logging.
// Duplicated from the instrumentation package, which imports this one.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Options configures the process logger.
type Options struct {
	// Debug lowers the level to slog.LevelDebug.
	Debug bool

	// Format is "text" (default) or "json".
	Format string
}

// New returns a logger writing to w. stdio transports must pass stderr so
// stdout stays reserved for the protocol.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(opts.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q, must be 'text' or 'json'", opts.Format)
	}
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithAccount returns a logger with the account attribute set.
func WithAccount(logger *slog.Logger, account string) *slog.Logger {
	return logger.With(slog.String(KeyAccount, account))
}

func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

func Service(svc string) slog.Attr {
	return slog.String(KeyService, svc)
}

func Account(account string) slog.Attr {
	return slog.String(KeyAccount, account)
}

func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Scope returns an attribute naming one OAuth scope.
func Scope(scope string) slog.Attr {
	return slog.String(KeyScope, scope)
}

// Permissions returns an attribute with the active permission config, for
// example "drive:readonly,gmail:organize" or "unrestricted".
func Permissions(cfg fmt.Stringer) slog.Attr {
	return slog.String(KeyPermissions, cfg.String())
}

func AttachmentCount(n int) slog.Attr {
	return slog.Int(KeyAttachmentCount, n)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email for logging purposes.
// This allows correlation of log entries without exposing PII.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user email.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken returns a length indicator without exposing any token content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
