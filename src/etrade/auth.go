package etrade

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dghubble/oauth1"
)

const DefaultAuthorizeURL = "https://us.etrade.com/e/t/etws/authorize"

// Prompter reads the verification code the user copies from the browser.
type Prompter interface {
	ReadLine(prompt string) (string, error)
}

// Authenticator runs the out-of-band OAuth1 flow: request token, browser
// authorization, verifier typed by the user, access token.
type Authenticator struct {
	ConsumerKey    string
	ConsumerSecret string
	BaseURL        string
	AuthorizeURL   string
	Prompt         Prompter
	OpenURL        func(url string) error
	Out            func(format string, args ...any)
}

func (a *Authenticator) config() *oauth1.Config {
	base := strings.TrimRight(a.BaseURL, "/")

	return &oauth1.Config{
		ConsumerKey:    a.ConsumerKey,
		ConsumerSecret: a.ConsumerSecret,
		CallbackURL:    "oob",
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: base + "/oauth/request_token",
			AuthorizeURL:    a.authorizeURL(),
			AccessTokenURL:  base + "/oauth/access_token",
		},
	}
}

func (a *Authenticator) authorizeURL() string {
	if a.AuthorizeURL != "" {
		return a.AuthorizeURL
	}

	return DefaultAuthorizeURL
}

// userAuthorizationURL differs from the standard OAuth1 form: E*TRADE wants the
// consumer key next to the request token.
func (a *Authenticator) userAuthorizationURL(requestToken string) string {
	values := url.Values{}
	values.Set("key", a.ConsumerKey)
	values.Set("token", requestToken)

	return a.authorizeURL() + "?" + values.Encode()
}

// Authenticate returns an HTTP client that signs every request with the access token.
func (a *Authenticator) Authenticate(ctx context.Context) (*http.Client, error) {
	cfg := a.config()

	requestToken, requestSecret, err := cfg.RequestToken()
	if err != nil {
		return nil, fmt.Errorf("Authenticate: failed to get request token: %w", err)
	}

	authURL := a.userAuthorizationURL(requestToken)
	a.printf("Please go to this URL for authorization: %s\n", authURL)
	if a.OpenURL != nil {
		if err := a.OpenURL(authURL); err != nil {
			a.printf("Could not open a browser: %v\n", err)
		}
	}

	verifier, err := a.Prompt.ReadLine("Enter the verification code: ")
	if err != nil {
		return nil, fmt.Errorf("Authenticate: failed to read verification code: %w", err)
	}

	accessToken, accessSecret, err := cfg.AccessToken(requestToken, requestSecret, strings.TrimSpace(verifier))
	if err != nil {
		return nil, fmt.Errorf("Authenticate: failed to get access token: %w", err)
	}

	return cfg.Client(ctx, oauth1.NewToken(accessToken, accessSecret)), nil
}

func (a *Authenticator) printf(format string, args ...any) {
	if a.Out != nil {
		a.Out(format, args...)
	}
}
