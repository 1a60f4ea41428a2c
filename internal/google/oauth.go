package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/workspace-mcp/internal/instrumentation"
	"github.com/teemow/workspace-mcp/internal/logging"
	"github.com/teemow/workspace-mcp/internal/permissions"
)

// OOBRedirectURL makes Google display the authorization code to the user
// instead of redirecting.
const OOBRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// DefaultAccount is used when a tool call names no account.
const DefaultAccount = "default"

// ErrNoToken is returned when an account has not been authorized yet.
var ErrNoToken = errors.New("no Google OAuth token found")

var accountNamePattern = regexp.MustCompile(`^[A-Za-z0-9._@+-]+$`)

// ValidateAccountName rejects empty names and names with characters outside
// letters, digits and "._@+-".
func ValidateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits and ._@+- are allowed", account)
	}
	return nil
}

// Config configures an Authenticator.
type Config struct {
	ClientID     string
	ClientSecret string

	// RedirectURL defaults to OOBRedirectURL.
	RedirectURL string

	// Endpoint defaults to Google's OAuth2 endpoint.
	Endpoint oauth2.Endpoint

	// Permissions selects the requested scopes. nil requests DefaultOAuthScopes.
	Permissions *permissions.Config
}

// Authenticator issues authorization URLs, exchanges codes and creates
// authenticated HTTP clients for Google accounts.
type Authenticator struct {
	oauth   *oauth2.Config
	tokens  TokenProvider
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewAuthenticator creates an Authenticator. metrics may be nil.
func NewAuthenticator(cfg Config, tokens TokenProvider, metrics *instrumentation.Metrics, logger *slog.Logger) (*Authenticator, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("google OAuth client ID is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token provider is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	redirect := cfg.RedirectURL
	if redirect == "" {
		redirect = OOBRedirectURL
	}

	scopes := ScopesFor(cfg.Permissions)
	logger.Debug("configured OAuth scopes",
		logging.Permissions(cfg.Permissions),
		slog.Int("scope_count", len(scopes)))

	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  redirect,
			Scopes:       scopes,
		},
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Scopes returns the scopes this Authenticator requests.
func (a *Authenticator) Scopes() []string {
	return append([]string(nil), a.oauth.Scopes...)
}

// AuthURL returns the URL where the user grants access for account. The
// account name travels as the OAuth state.
func (a *Authenticator) AuthURL(account string) string {
	return a.oauth.AuthCodeURL(account, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and stores it for account.
func (a *Authenticator) Exchange(ctx context.Context, account, code string) error {
	if err := ValidateAccountName(account); err != nil {
		return err
	}
	if code == "" {
		return fmt.Errorf("authorization code cannot be empty")
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceOAuth2, "token.exchange")
	defer span.End()

	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		a.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	if err := a.tokens.SaveToken(ctx, account, token); err != nil {
		a.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to save token: %w", err)
	}

	a.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	instrumentation.SetSpanSuccess(span)
	a.logger.Info("stored Google OAuth token", logging.Account(account))
	return nil
}

// SeedRefreshToken stores a token consisting only of refreshToken so the
// next request for account refreshes it.
func (a *Authenticator) SeedRefreshToken(ctx context.Context, account, refreshToken string) error {
	if err := ValidateAccountName(account); err != nil {
		return err
	}
	if refreshToken == "" {
		return fmt.Errorf("refresh token cannot be empty")
	}
	return a.tokens.SaveToken(ctx, account, &oauth2.Token{
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
		Expiry:       time.Unix(1, 0),
	})
}

// HasToken reports whether account has been authorized.
func (a *Authenticator) HasToken(ctx context.Context, account string) bool {
	if ValidateAccountName(account) != nil {
		return false
	}
	return a.tokens.HasToken(ctx, account)
}

// HTTPClient returns an HTTP client authorized as account. Tokens refreshed
// by the client are written back to the token provider.
func (a *Authenticator) HTTPClient(ctx context.Context, account string) (*http.Client, error) {
	if err := ValidateAccountName(account); err != nil {
		return nil, err
	}

	token, err := a.tokens.GetToken(ctx, account)
	if err != nil || token == nil {
		return nil, fmt.Errorf("%w for account %q; authorize it with google_get_auth_url", ErrNoToken, account)
	}

	ts := &persistingTokenSource{
		ctx:     context.WithoutCancel(ctx),
		account: account,
		base:    a.oauth.TokenSource(context.WithoutCancel(ctx), token),
		tokens:  a.tokens,
		metrics: a.metrics,
		logger:  a.logger,
		last:    token.AccessToken,
	}

	// Force HTTP/1.1 by disabling HTTP/2
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(token, ts),
			Base:   &http.Transport{ForceAttemptHTTP2: false, Proxy: http.ProxyFromEnvironment},
		},
	}, nil
}

// persistingTokenSource saves every newly minted token.
type persistingTokenSource struct {
	ctx     context.Context
	account string
	base    oauth2.TokenSource
	tokens  TokenProvider
	metrics *instrumentation.Metrics
	logger  *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		result := instrumentation.OAuthResultFailure
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
			result = instrumentation.OAuthResultExpired
		}
		s.metrics.RecordOAuthTokenRefresh(s.ctx, result)
		return nil, fmt.Errorf("failed to refresh token for account %q: %w", s.account, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken == s.last {
		return token, nil
	}
	s.last = token.AccessToken
	s.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultSuccess)

	if err := s.tokens.SaveToken(s.ctx, s.account, token); err != nil {
		s.logger.Warn("failed to persist refreshed token", logging.Account(s.account), logging.Err(err))
	}
	return token, nil
}
