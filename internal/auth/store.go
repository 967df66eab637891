package auth

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// FileTokenStore keeps the OAuth token in a single JSON file. The file is
// written with 0600 permissions since it carries a refresh token.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore returns a token store backed by the file at path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// SaveToken writes the token, replacing any previous one.
func (s *FileTokenStore) SaveToken(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token to %s: %w", s.path, err)
	}

	return nil
}

// LoadToken reads the stored token. A missing file means the user has not
// authorized yet and is reported as (nil, nil), not as an error.
func (s *FileTokenStore) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token from %s: %w", s.path, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token file %s: %w", s.path, err)
	}

	return &token, nil
}
