package schwab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const DefaultTokenFile = "tokens.json"

type Prompter interface {
	ReadLine(prompt string) (string, error)
}

// Authenticator runs the authorization-code flow. The user authorizes in the
// browser and pastes back the URL they were redirected to. Tokens are kept in
// TokenFile and refreshed transparently.
type Authenticator struct {
	AppKey      string
	AppSecret   string
	CallbackURL string
	BaseURL     string
	TokenFile   string
	Prompt      Prompter
	OpenURL     func(url string) error
	Out         func(format string, args ...any)
}

func (a *Authenticator) config() *oauth2.Config {
	base := a.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")

	return &oauth2.Config{
		ClientID:     a.AppKey,
		ClientSecret: a.AppSecret,
		RedirectURL:  a.CallbackURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/v1/oauth/authorize",
			TokenURL:  base + "/v1/oauth/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func (a *Authenticator) tokenFile() string {
	if a.TokenFile == "" {
		return DefaultTokenFile
	}

	return a.TokenFile
}

// Authenticate returns a client carrying a bearer token. With useExisting the saved
// token is reused when there is one; otherwise the saved token is deleted and the
// browser flow runs.
func (a *Authenticator) Authenticate(ctx context.Context, useExisting bool) (*http.Client, error) {
	cfg := a.config()

	if useExisting {
		tok, err := loadToken(a.tokenFile())
		switch {
		case err == nil:
			a.printf("Attempting to use existing tokens...\n")
			return oauth2.NewClient(ctx, newFileTokenSource(cfg.TokenSource(ctx, tok), a.tokenFile(), tok)), nil
		case !errors.Is(err, fs.ErrNotExist):
			a.printf("Error using existing tokens: %v\n", err)
		}
	}

	a.printf("\nStarting fresh authentication process...\n")
	if err := a.DeleteToken(); err != nil {
		return nil, fmt.Errorf("Authenticate: %w", err)
	}

	authURL := cfg.AuthCodeURL("hedge-sheets")
	a.printf("Please authorize in your browser: %s\n", authURL)
	if a.OpenURL != nil {
		if err := a.OpenURL(authURL); err != nil {
			a.printf("Could not open a browser: %v\n", err)
		}
	}

	redirect, err := a.Prompt.ReadLine("Paste the URL you were redirected to: ")
	if err != nil {
		return nil, fmt.Errorf("Authenticate: failed to read redirect URL: %w", err)
	}

	code, err := authorizationCode(redirect)
	if err != nil {
		return nil, fmt.Errorf("Authenticate: %w", err)
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("Authenticate: failed to exchange authorization code: %w", err)
	}

	if err := saveToken(a.tokenFile(), tok); err != nil {
		return nil, fmt.Errorf("Authenticate: %w", err)
	}

	return oauth2.NewClient(ctx, newFileTokenSource(cfg.TokenSource(ctx, tok), a.tokenFile(), tok)), nil
}

// DeleteToken removes the saved token file, if any.
func (a *Authenticator) DeleteToken() error {
	err := os.Remove(a.tokenFile())
	switch {
	case err == nil:
		a.printf("Deleted old %s file.\n", a.tokenFile())
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("DeleteToken: %w", err)
	}
}

func (a *Authenticator) printf(format string, args ...any) {
	if a.Out != nil {
		a.Out(format, args...)
	}
}

func authorizationCode(redirect string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(redirect))
	if err != nil {
		return "", fmt.Errorf("authorizationCode: invalid redirect URL: %w", err)
	}

	if msg := u.Query().Get("error"); msg != "" {
		return "", fmt.Errorf("authorizationCode: authorization denied: %s", msg)
	}

	code := u.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("authorizationCode: redirect URL has no code parameter")
	}

	return code, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("loadToken: %s: %w", path, err)
	}

	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("loadToken: %s holds no token", path)
	}

	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("saveToken: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("saveToken: %w", err)
	}

	return nil
}

// fileTokenSource writes every newly issued token back to disk.
type fileTokenSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	path string
	last string
}

func newFileTokenSource(base oauth2.TokenSource, path string, current *oauth2.Token) *fileTokenSource {
	return &fileTokenSource{base: base, path: path, last: current.AccessToken}
}

func (s *fileTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	if tok.AccessToken != s.last {
		if err := saveToken(s.path, tok); err != nil {
			log.Warnf("fileTokenSource: %v", err)
		} else {
			s.last = tok.AccessToken
		}
	}

	return tok, nil
}
