package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jiaming2012/hedge-sheets/src/auth"
	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
	"github.com/jiaming2012/hedge-sheets/src/schwab"
	"github.com/jiaming2012/hedge-sheets/src/workbook"
)

// SchwabService writes the single Schwab workbook.
type SchwabService struct {
	// Connect returns the position source of the configured account. With
	// useExisting false any saved token is discarded first.
	Connect  func(ctx context.Context, useExisting bool) (eventmodels.RawPositionSource, error)
	Retry    auth.RetryPolicy
	Pipeline *Pipeline
}

func (s *SchwabService) Run(ctx context.Context) (string, error) {
	s.Pipeline.printf("Starting TDA spreadsheet update...\n")

	var records []eventmodels.ProviderRecord
	err := s.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		var err error
		records, err = s.fetch(ctx)
		if err != nil {
			s.Pipeline.printf("\nAuthentication error: %v\n", err)
		}
		return err
	})
	if err != nil {
		return "", fmt.Errorf("SchwabService.Run: %w", err)
	}

	path, err := s.Pipeline.Run(ctx, workbook.Target{Provider: eventmodels.ProviderSchwab}, records)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoPositions):
			s.Pipeline.printf("No data available\n")
		case errors.Is(err, workbook.ErrFileLocked):
			s.Pipeline.printf("Error: The file '%s' is open. Please close it and try again.\n",
				s.Pipeline.Assembler.Path(workbook.Target{Provider: eventmodels.ProviderSchwab}))
		}
		return "", fmt.Errorf("SchwabService.Run: %w", err)
	}

	s.Pipeline.printf("Successfully created %s\n", path)
	return path, nil
}

// fetch tries the saved token first. A refresh the server rejects outright is
// followed by a fresh authorization without asking.
func (s *SchwabService) fetch(ctx context.Context) ([]eventmodels.ProviderRecord, error) {
	source, err := s.Connect(ctx, true)
	if err != nil {
		return nil, err
	}

	records, err := source.FetchPositions(ctx)
	if !errors.Is(err, schwab.ErrTokenRejected) {
		return records, err
	}

	s.Pipeline.logger().Warnf("SchwabService.fetch: %v", err)
	s.Pipeline.printf("Refresh token authentication failed. Deleting old tokens...\n")

	source, err = s.Connect(ctx, false)
	if err != nil {
		return nil, err
	}

	return source.FetchPositions(ctx)
}
