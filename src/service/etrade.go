package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jiaming2012/hedge-sheets/src/auth"
	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
	"github.com/jiaming2012/hedge-sheets/src/workbook"
)

// ETradeAPI is the part of the E*TRADE client the service needs.
type ETradeAPI interface {
	FetchAccounts(ctx context.Context, allowList []string) ([]eventmodels.Account, error)
	PositionSource(account eventmodels.Account) eventmodels.RawPositionSource
}

// ETradeService authenticates once, then writes one workbook per selected account.
type ETradeService struct {
	// Connect runs the interactive authorization and returns a signed client.
	Connect   func(ctx context.Context) (ETradeAPI, error)
	AllowList []string
	Retry     auth.RetryPolicy
	Pipeline  *Pipeline
	// Pause, if set, is called after a problem that needs the user's attention.
	Pause func(prompt string)

	api      ETradeAPI
	accounts []eventmodels.Account
}

type AccountResult struct {
	Account eventmodels.Account
	Path    string
	Err     error
}

// Login authenticates and loads the account list, asking before every repeat.
func (s *ETradeService) Login(ctx context.Context) error {
	s.Pipeline.printf("Starting E*TRADE spreadsheet update...\n")

	err := s.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			s.Pipeline.printf("\nRetrying authentication...\n")
		}

		api, err := s.Connect(ctx)
		if err != nil {
			s.Pipeline.printf("\nAuthentication error: %v\n", err)
			return err
		}

		accounts, err := api.FetchAccounts(ctx, s.AllowList)
		if err != nil {
			s.Pipeline.printf("\nAuthentication error: %v\n", err)
			return err
		}

		s.api = api
		s.accounts = accounts
		return nil
	})
	if err != nil {
		return fmt.Errorf("ETradeService.Login: %w", err)
	}

	if len(s.accounts) == 0 {
		s.Pipeline.printf("No accounts found\n")
		return fmt.Errorf("ETradeService.Login: %w", ErrNoAccounts)
	}

	return nil
}

func (s *ETradeService) Accounts() []eventmodels.Account {
	return s.accounts
}

// Process writes the workbook of every account in turn. A failing account is
// reported and skipped; it never stops the others.
func (s *ETradeService) Process(ctx context.Context, accounts []eventmodels.Account) []AccountResult {
	results := make([]AccountResult, 0, len(accounts))

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			results = append(results, AccountResult{Account: account, Err: err})
			continue
		}

		s.Pipeline.printf("\nProcessing account: %s\n", account.ID)
		path, err := s.processAccount(ctx, account)
		results = append(results, AccountResult{Account: account, Path: path, Err: err})

		log := s.Pipeline.logger().WithField("account", account.Suffix())
		switch {
		case err == nil:
			s.Pipeline.printf("\nSuccessfully created %s\n", path)
		case errors.Is(err, ErrNoPositions):
			log.Warnf("ETradeService.Process: %v", err)
			s.Pipeline.printf("No data available for account %s\n", account.ID)
		case errors.Is(err, workbook.ErrFileLocked):
			log.Warnf("ETradeService.Process: %v", err)
			s.Pipeline.printf("Error: The file '%s' is open. Please close it and try again.\n", s.Pipeline.Assembler.Path(s.target(account)))
			s.pause()
		default:
			log.Errorf("ETradeService.Process: %v", err)
			s.Pipeline.printf("Failed to process account %s: %v\n", account.ID, err)
			s.pause()
		}
	}

	return results
}

func (s *ETradeService) target(account eventmodels.Account) workbook.Target {
	return workbook.Target{Provider: eventmodels.ProviderETrade, AccountID: account.ID}
}

// processAccount re-authenticates once when the portfolio cannot be fetched.
func (s *ETradeService) processAccount(ctx context.Context, account eventmodels.Account) (string, error) {
	records, err := s.api.PositionSource(account).FetchPositions(ctx)
	if err != nil {
		s.Pipeline.printf("\nAPI error occurred: %v\n", err)
		s.Pipeline.printf("Attempting to re-authenticate...\n")

		api, authErr := s.Connect(ctx)
		if authErr != nil {
			return "", fmt.Errorf("processAccount: failed to re-authenticate: %w", authErr)
		}
		s.api = api

		records, err = s.api.PositionSource(account).FetchPositions(ctx)
		if err != nil {
			return "", fmt.Errorf("processAccount: %w", err)
		}
	}

	return s.Pipeline.Run(ctx, s.target(account), records)
}

func (s *ETradeService) pause() {
	if s.Pause != nil {
		s.Pause("")
	}
}
