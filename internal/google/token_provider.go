package google

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/giantswarm/mcp-oauth/storage"
)

// TokenProvider stores Google OAuth tokens per account.
type TokenProvider interface {
	// GetToken retrieves the token stored for account.
	GetToken(ctx context.Context, account string) (*oauth2.Token, error)

	// SaveToken stores token for account, replacing any previous token.
	SaveToken(ctx context.Context, account string, token *oauth2.Token) error

	// HasToken reports whether a token is stored for account.
	HasToken(ctx context.Context, account string) bool
}

// StoreTokenProvider implements TokenProvider on top of an mcp-oauth TokenStore.
type StoreTokenProvider struct {
	store storage.TokenStore
}

// NewStoreTokenProvider creates a token provider from an mcp-oauth TokenStore.
func NewStoreTokenProvider(store storage.TokenStore) *StoreTokenProvider {
	return &StoreTokenProvider{
		store: store,
	}
}

func (p *StoreTokenProvider) GetToken(ctx context.Context, account string) (*oauth2.Token, error) {
	return p.store.GetToken(ctx, account)
}

func (p *StoreTokenProvider) SaveToken(ctx context.Context, account string, token *oauth2.Token) error {
	return p.store.SaveToken(ctx, account, token)
}

func (p *StoreTokenProvider) HasToken(ctx context.Context, account string) bool {
	_, err := p.store.GetToken(ctx, account)
	return err == nil
}
