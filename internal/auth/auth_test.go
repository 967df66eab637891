package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// mockTokenStore is a mock implementation of TokenStore for testing.
type mockTokenStore struct {
	token       *oauth2.Token
	savedTokens []*oauth2.Token
}

func (m *mockTokenStore) SaveToken(token *oauth2.Token) error {
	m.savedTokens = append(m.savedTokens, token)
	m.token = token
	return nil
}

func (m *mockTokenStore) LoadToken() (*oauth2.Token, error) {
	return m.token, nil
}

func testOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
}

func TestNewClient_TokenExists(t *testing.T) {
	ctx := context.Background()

	// A valid, non-expired token is already stored, so no interactive flow
	// should be needed.
	mockStore := &mockTokenStore{
		token: &oauth2.Token{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			Expiry:       time.Now().Add(1 * time.Hour),
			TokenType:    "Bearer",
		},
	}

	client, err := NewClient(ctx, testOAuthConfig(), mockStore)
	if err != nil {
		t.Fatalf("NewClient() returned an error: %v", err)
	}

	if client == nil {
		t.Fatal("NewClient() returned nil client")
	}
}

func TestNewClientWithReader_TokenExists(t *testing.T) {
	ctx := context.Background()

	mockStore := &mockTokenStore{
		token: &oauth2.Token{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			Expiry:       time.Now().Add(1 * time.Hour),
			TokenType:    "Bearer",
		},
	}

	// The reader is nil on purpose: with a stored token the code prompt
	// must never be reached.
	client, err := NewClientWithReader(ctx, testOAuthConfig(), mockStore, nil)
	if err != nil {
		t.Fatalf("NewClientWithReader() returned an error: %v", err)
	}

	if client == nil {
		t.Fatal("NewClientWithReader() returned nil client")
	}

	if len(mockStore.savedTokens) != 0 {
		t.Errorf("Expected no token saves for an existing token, got %d", len(mockStore.savedTokens))
	}
}

func TestAutoSaveTokenSource_SavesRefreshedToken(t *testing.T) {
	mockStore := &mockTokenStore{}

	oldToken := &oauth2.Token{AccessToken: "old-access-token"}
	newToken := &oauth2.Token{AccessToken: "new-access-token"}

	source := &autoSaveTokenSource{
		source:     oauth2.StaticTokenSource(newToken),
		tokenStore: mockStore,
		lastToken:  oldToken,
	}

	got, err := source.Token()
	if err != nil {
		t.Fatalf("Token() returned an error: %v", err)
	}

	if got.AccessToken != "new-access-token" {
		t.Errorf("Expected AccessToken to be 'new-access-token', got '%s'", got.AccessToken)
	}

	if len(mockStore.savedTokens) != 1 {
		t.Fatalf("Expected 1 saved token, got %d", len(mockStore.savedTokens))
	}
}

func TestAutoSaveTokenSource_SkipsUnchangedToken(t *testing.T) {
	mockStore := &mockTokenStore{}

	token := &oauth2.Token{AccessToken: "same-access-token"}

	source := &autoSaveTokenSource{
		source:     oauth2.StaticTokenSource(token),
		tokenStore: mockStore,
		lastToken:  token,
	}

	if _, err := source.Token(); err != nil {
		t.Fatalf("Token() returned an error: %v", err)
	}

	if len(mockStore.savedTokens) != 0 {
		t.Errorf("Expected no saves for an unchanged token, got %d", len(mockStore.savedTokens))
	}
}
