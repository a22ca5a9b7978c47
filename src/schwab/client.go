// Package schwab reads account positions from the Schwab trader API (the successor
// of the TD Ameritrade API), which answers in JSON.
package schwab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
)

const DefaultBaseURL = "https://api.schwabapi.com"

var (
	ErrUnauthorized  = errors.New("schwab: unauthorized")
	ErrTokenRejected = errors.New("schwab: refresh token rejected")
)

// refresh failures that can only be fixed by a fresh authorization
var rejectedTokenCodes = []string{"refresh_token_authentication_error", "unsupported_token_type"}

type Client struct {
	httpClient *http.Client
	baseURL    string
	log        logrus.FieldLogger
}

func NewClient(httpClient *http.Client, baseURL string, logger logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        logger,
	}
}

func classifyTransportError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return err
	}

	for _, code := range rejectedTokenCodes {
		if retrieveErr.ErrorCode == code || strings.Contains(string(retrieveErr.Body), code) {
			return fmt.Errorf("%w: %v", ErrTokenRejected, err)
		}
	}

	return fmt.Errorf("%w: %v", ErrUnauthorized, err)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("get: failed to create request: %w", err)
	}

	req.Header.Add("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: failed to call %s: %w", path, classifyTransportError(err))
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("get: failed to read response body: %w", err)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("get: %s: %w", path, ErrUnauthorized)
	case res.StatusCode >= 400:
		return nil, fmt.Errorf("get: %s: %s", path, res.Status)
	}

	return body, nil
}

// FetchPositions returns the raw positions of the account identified by its hash.
// A response that cannot be parsed yields no records and is logged.
func (c *Client) FetchPositions(ctx context.Context, accountHash string) ([]eventmodels.ProviderRecord, error) {
	body, err := c.get(ctx, fmt.Sprintf("/trader/v1/accounts/%s", url.PathEscape(accountHash)), url.Values{"fields": {"positions"}})
	if err != nil {
		return nil, fmt.Errorf("FetchPositions: %w", err)
	}

	var dto eventmodels.SchwabAccountDetailsDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		c.log.Errorf("FetchPositions: failed to parse account details: %v", err)
		return nil, nil
	}

	return dto.ToRecords(), nil
}

// AccountSource is the RawPositionSource of one Schwab account.
type AccountSource struct {
	Client      *Client
	AccountHash string
}

func (s AccountSource) FetchPositions(ctx context.Context) ([]eventmodels.ProviderRecord, error) {
	return s.Client.FetchPositions(ctx, s.AccountHash)
}
