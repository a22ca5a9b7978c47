package eventmodels

import (
	"context"
	"encoding/json"
)

// ProviderTag names the upstream a record came from. The value doubles as the
// workbook file prefix.
type ProviderTag string

const (
	ProviderETrade ProviderTag = "ETRADE"
	ProviderSchwab ProviderTag = "TDA"
)

// ProviderRecord is one raw position as returned by a provider. Exactly one of
// the payload fields is set, selected by Provider.
type ProviderRecord struct {
	Provider ProviderTag
	ETrade   *EtradePositionDTO
	Schwab   json.RawMessage
}

func NewEtradeRecord(dto EtradePositionDTO) ProviderRecord {
	return ProviderRecord{Provider: ProviderETrade, ETrade: &dto}
}

func NewSchwabRecord(raw json.RawMessage) ProviderRecord {
	return ProviderRecord{Provider: ProviderSchwab, Schwab: raw}
}

// RawPositionSource yields the raw position records of a single account.
type RawPositionSource interface {
	FetchPositions(ctx context.Context) ([]ProviderRecord, error)
}
