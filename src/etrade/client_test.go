package etrade

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
	"github.com/jiaming2012/hedge-sheets/src/utils"
)

const accountListXML = `<?xml version="1.0" encoding="UTF-8"?>
<AccountListResponse>
  <Accounts>
    <Account><accountId>11111234</accountId><accountIdKey>key-a</accountIdKey></Account>
    <Account><accountId>22225678</accountId><accountIdKey>key-b</accountIdKey></Account>
    <Account><accountId>33339999</accountId></Account>
  </Accounts>
</AccountListResponse>`

const portfolioXML = `<?xml version="1.0" encoding="UTF-8"?>
<PortfolioResponse>
  <AccountPortfolio>
    <accountId>11111234</accountId>
    <Position>
      <symbolDescription>AAPL</symbolDescription>
      <quantity>100</quantity>
      <pricePaid>150.25</pricePaid>
      <Product><symbol>AAPL</symbol><securityType>EQ</securityType></Product>
      <Quick><lastTrade>190.5</lastTrade></Quick>
    </Position>
    <Position>
      <symbolDescription>AAPL Jan 19 '24 $200 Call</symbolDescription>
      <quantity>-1</quantity>
      <pricePaid>3.10</pricePaid>
      <Product>
        <symbol>AAPL</symbol><securityType>OPTN</securityType><callPut>CALL</callPut>
        <expiryYear>2024</expiryYear><expiryMonth>1</expiryMonth><expiryDay>19</expiryDay>
        <strikePrice>200</strikePrice>
      </Product>
      <Quick><lastTrade>2.05</lastTrade></Quick>
    </Position>
  </AccountPortfolio>
</PortfolioResponse>`

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, found := routes[r.URL.Path]
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if body == "401" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	return server
}

func TestFetchAccounts(t *testing.T) {
	server := newTestServer(t, map[string]string{"/v1/accounts/list": accountListXML})
	logger, hook := test.NewNullLogger()
	client := NewClient(server.Client(), server.URL, logger)

	t.Run("allow-list filters accounts", func(t *testing.T) {
		accounts, err := client.FetchAccounts(context.Background(), []string{"22225678"})
		require.NoError(t, err)
		assert.Equal(t, []eventmodels.Account{{ID: "22225678", Key: "key-b"}}, accounts)
	})

	t.Run("empty allow-list keeps everything well formed", func(t *testing.T) {
		hook.Reset()
		accounts, err := client.FetchAccounts(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "1234", accounts[0].Suffix())
		assert.Len(t, hook.AllEntries(), 1)
	})
}

func TestFetchPositions(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/v1/accounts/key-a/portfolio":   portfolioXML,
		"/v1/accounts/broken/portfolio":  "<PortfolioResponse><Position><quantity>1</quantity>",
		"/v1/accounts/expired/portfolio": "401",
	})
	logger, hook := test.NewNullLogger()
	client := NewClient(server.Client(), server.URL, logger)

	t.Run("decodes every position", func(t *testing.T) {
		records, err := client.PositionSource(eventmodels.Account{ID: "11111234", Key: "key-a"}).FetchPositions(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, eventmodels.ProviderETrade, records[0].Provider)
		require.NotNil(t, records[1].ETrade)
		require.NotNil(t, records[1].ETrade.Product)
		assert.Equal(t, "200", *records[1].ETrade.Product.StrikePrice)
		assert.Equal(t, "2.05", *records[1].ETrade.LastTrade())
	})

	t.Run("unparsable document yields nothing", func(t *testing.T) {
		hook.Reset()
		records, err := client.FetchPositions(context.Background(), "broken")
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.Len(t, hook.AllEntries(), 1)
	})

	t.Run("unauthorized is an error", func(t *testing.T) {
		_, err := client.FetchPositions(context.Background(), "expired")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("other failures are errors", func(t *testing.T) {
		_, err := client.FetchPositions(context.Background(), "missing")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthorized)
	})
}

func TestAuthenticate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "oauth_token=request-token&oauth_token_secret=request-secret&oauth_callback_confirmed=true")
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Authorization"), `oauth_verifier="12345"`) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, "oauth_token=access-token&oauth_token_secret=access-secret")
	})
	mux.HandleFunc("/v1/accounts/list", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Authorization"), `oauth_token="access-token"`) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, accountListXML)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	var opened []string
	var printed strings.Builder
	a := &Authenticator{
		ConsumerKey:    "consumer",
		ConsumerSecret: "secret",
		BaseURL:        server.URL,
		AuthorizeURL:   server.URL + "/authorize",
		Prompt:         utils.NewConsole(strings.NewReader("12345\n"), io.Discard),
		OpenURL: func(url string) error {
			opened = append(opened, url)
			return nil
		},
		Out: func(format string, args ...any) { fmt.Fprintf(&printed, format, args...) },
	}

	httpClient, err := a.Authenticate(context.Background())
	require.NoError(t, err)

	require.Len(t, opened, 1)
	assert.Equal(t, server.URL+"/authorize?key=consumer&token=request-token", opened[0])
	assert.Contains(t, printed.String(), opened[0])

	accounts, err := NewClient(httpClient, server.URL, nil).FetchAccounts(context.Background(), []string{"11111234"})
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}
