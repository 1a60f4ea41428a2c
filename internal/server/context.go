package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/workspace-mcp/internal/gmail"
	"github.com/teemow/workspace-mcp/internal/google"
	"github.com/teemow/workspace-mcp/internal/instrumentation"
	"github.com/teemow/workspace-mcp/internal/logging"
	"github.com/teemow/workspace-mcp/internal/permissions"
)

// MailboxFactory creates the Gmail mailbox of an account.
type MailboxFactory func(ctx context.Context, account string) (gmail.Mailbox, error)

// Options configures a ServerContext.
type Options struct {
	// Permissions is the active permission config; nil means unrestricted.
	Permissions *permissions.Config

	Authenticator *google.Authenticator
	Metrics       *instrumentation.Metrics
	Logger        *slog.Logger

	// Mailboxes overrides how mailboxes are created. It defaults to Gmail
	// clients authorized through Authenticator.
	Mailboxes MailboxFactory
}

// ServerContext holds the state shared by all MCP tool handlers.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	permissions *permissions.Config
	auth        *google.Authenticator
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
	newMailbox  MailboxFactory
	mailboxes   map[string]gmail.Mailbox // Maps account name to mailbox
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	factory := opts.Mailboxes
	if factory == nil {
		if opts.Authenticator == nil {
			return nil, fmt.Errorf("an authenticator or a mailbox factory is required")
		}
		factory = gmailMailboxFactory(opts.Authenticator, opts.Metrics)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		permissions: opts.Permissions,
		auth:        opts.Authenticator,
		metrics:     opts.Metrics,
		logger:      logger,
		newMailbox:  factory,
		mailboxes:   make(map[string]gmail.Mailbox),
	}, nil
}

func gmailMailboxFactory(auth *google.Authenticator, metrics *instrumentation.Metrics) MailboxFactory {
	return func(ctx context.Context, account string) (gmail.Mailbox, error) {
		httpClient, err := auth.HTTPClient(ctx, account)
		if err != nil {
			return nil, err
		}
		client, err := gmail.NewClient(ctx, account, httpClient)
		if err != nil {
			return nil, err
		}
		client.SetMetrics(metrics)
		return client, nil
	}
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Permissions returns the active permission config, nil when unrestricted.
func (sc *ServerContext) Permissions() *permissions.Config {
	return sc.permissions
}

// Authenticator returns the Google authenticator, which may be nil when a
// custom mailbox factory is used.
func (sc *ServerContext) Authenticator() *google.Authenticator {
	return sc.auth
}

// Metrics returns the metrics recorder. A nil recorder is a no-op.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Mailbox returns the mailbox for account, creating and caching it on first use.
func (sc *ServerContext) Mailbox(ctx context.Context, account string) (gmail.Mailbox, error) {
	sc.mu.RLock()
	mb, ok := sc.mailboxes[account]
	shutdown := sc.shutdown
	sc.mu.RUnlock()
	if shutdown {
		return nil, fmt.Errorf("server is shutting down")
	}
	if ok {
		return mb, nil
	}

	mb, err := sc.newMailbox(ctx, account)
	if err != nil {
		sc.logger.Warn("failed to create Gmail client", logging.Account(account), logging.Err(err))
		return nil, fmt.Errorf("failed to create Gmail client for account %s: %w", account, err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if existing, ok := sc.mailboxes[account]; ok {
		return existing, nil
	}
	sc.mailboxes[account] = mb
	return mb, nil
}

// SetMailbox sets the mailbox for a specific account
func (sc *ServerContext) SetMailbox(account string, mb gmail.Mailbox) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.mailboxes[account] = mb
}

// ForgetMailbox drops a cached mailbox so the next call re-authorizes.
func (sc *ServerContext) ForgetMailbox(account string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.mailboxes, account)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

// CachedAccounts returns how many accounts have an initialized mailbox.
func (sc *ServerContext) CachedAccounts() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.mailboxes)
}
