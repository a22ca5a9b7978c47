// Package etrade talks to the E*TRADE v1 REST API, which answers in XML.
package etrade

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
)

var ErrUnauthorized = errors.New("etrade: unauthorized")

// Client wraps an authenticated HTTP client. The OAuth1 signing lives in the
// transport of httpClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        logrus.FieldLogger
}

func NewClient(httpClient *http.Client, baseURL string, logger logrus.FieldLogger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        logger,
	}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("get: failed to create request: %w", err)
	}

	req.Header.Add("Accept", "application/xml")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: failed to call %s: %w", path, err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("get: failed to read response body: %w", err)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("get: %s: %w", path, ErrUnauthorized)
	case res.StatusCode == http.StatusNoContent:
		return nil, nil
	case res.StatusCode >= 400:
		return nil, fmt.Errorf("get: %s: %s", path, res.Status)
	}

	return body, nil
}

// FetchAccounts lists the accounts of the authenticated user, keeping only those
// whose id is in allowList. An empty allowList keeps every account.
func (c *Client) FetchAccounts(ctx context.Context, allowList []string) ([]eventmodels.Account, error) {
	body, err := c.get(ctx, "/v1/accounts/list")
	if err != nil {
		return nil, fmt.Errorf("FetchAccounts: %w", err)
	}

	dtos, err := decodeElements[eventmodels.EtradeAccountDTO](body, "Account")
	if err != nil {
		c.log.Errorf("FetchAccounts: failed to parse account list: %v", err)
		return nil, nil
	}

	allowed := make(map[string]struct{}, len(allowList))
	for _, id := range allowList {
		allowed[strings.TrimSpace(id)] = struct{}{}
	}

	var accounts []eventmodels.Account
	for _, dto := range dtos {
		account, err := dto.ToModel()
		if err != nil {
			c.log.Warnf("FetchAccounts: skipping account: %v", err)
			continue
		}

		if len(allowed) > 0 {
			if _, ok := allowed[account.ID]; !ok {
				continue
			}
		}

		accounts = append(accounts, *account)
	}

	return accounts, nil
}

// FetchPositions returns the raw positions of one account. A response that cannot
// be parsed yields no records and is logged, not returned as an error.
func (c *Client) FetchPositions(ctx context.Context, accountKey string) ([]eventmodels.ProviderRecord, error) {
	body, err := c.get(ctx, fmt.Sprintf("/v1/accounts/%s/portfolio", accountKey))
	if err != nil {
		return nil, fmt.Errorf("FetchPositions: %w", err)
	}

	if len(body) == 0 {
		return nil, nil
	}

	dtos, err := decodeElements[eventmodels.EtradePositionDTO](body, "Position")
	if err != nil {
		c.log.WithField("account_key", accountKey).Errorf("FetchPositions: failed to parse portfolio: %v", err)
		return nil, nil
	}

	records := make([]eventmodels.ProviderRecord, 0, len(dtos))
	for _, dto := range dtos {
		records = append(records, eventmodels.NewEtradeRecord(dto))
	}

	return records, nil
}

// PositionSource returns the RawPositionSource of account.
func (c *Client) PositionSource(account eventmodels.Account) eventmodels.RawPositionSource {
	return PortfolioSource{Client: c, AccountKey: account.Key}
}

// PortfolioSource is the RawPositionSource of one E*TRADE account.
type PortfolioSource struct {
	Client     *Client
	AccountKey string
}

func (s PortfolioSource) FetchPositions(ctx context.Context) ([]eventmodels.ProviderRecord, error) {
	return s.Client.FetchPositions(ctx, s.AccountKey)
}
