package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
)

const defaultTokenURL = DefaultBaseURL + "/oauth-service/token"

// LoadToken reads an OAuth token from a JSON file.
func LoadToken(path string) (*oauth2.Token, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file %s: %w", path, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s has no tokens", path)
	}
	return &tok, nil
}

// SaveToken writes an OAuth token back to its JSON file.
func SaveToken(path string, tok *oauth2.Token) error {
	raw, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write token file %s: %w", path, err)
	}
	return nil
}

// TokenSource returns a source backed by the token file at path. Refreshed
// tokens are persisted so the next run picks up the rotated pair.
func TokenSource(ctx context.Context, path string) (oauth2.TokenSource, error) {
	tok, err := LoadToken(path)
	if err != nil {
		return nil, err
	}
	conf := &oauth2.Config{Endpoint: oauth2.Endpoint{TokenURL: defaultTokenURL}}
	return &fileTokenSource{
		path: path,
		src:  conf.TokenSource(ctx, tok),
		last: tok,
	}, nil
}

type fileTokenSource struct {
	path string
	src  oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

func (f *fileTokenSource) Token() (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, err := f.src.Token()
	if err != nil {
		return nil, err
	}
	if f.last == nil || tok.AccessToken != f.last.AccessToken {
		if err := SaveToken(f.path, tok); err != nil {
			return nil, err
		}
		f.last = tok
	}
	return tok, nil
}
