package eventmodels

import (
	"fmt"
	"strings"
	"time"
)

type AssetType string

const (
	AssetTypeEquity AssetType = "EQUITY"
	AssetTypeOption AssetType = "OPTION"
	AssetTypeOther  AssetType = "OTHER"
)

type PutCall string

const (
	PutCallPut  PutCall = "PUT"
	PutCallCall PutCall = "CALL"
	PutCallNone PutCall = "NONE"
)

// NewPutCall maps a provider put/call indicator onto PutCall. Anything that is not
// recognisably a put or a call is PutCallNone.
func NewPutCall(raw string) PutCall {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PUT", "P":
		return PutCallPut
	case "CALL", "C":
		return PutCallCall
	default:
		return PutCallNone
	}
}

// Position is a provider-agnostic holding. Nil pointers mean the provider did not
// supply the value. ExpirationDate is the MM/DD label; Expiration is the full date
// options are ordered by, zero when unknown.
type Position struct {
	Provider          ProviderTag
	Symbol            string
	Description       string
	RawAssetType      string
	AssetType         AssetType
	PutCall           PutCall
	Quantity          float64
	MarketValue       float64
	AveragePrice      *float64
	AverageLongPrice  *float64
	AverageShortPrice *float64
	ExpirationDate    string
	Expiration        time.Time
	StrikePrice       *float64
	CurrentPrice      *float64
}

func (p Position) IsOption() bool {
	return p.AssetType == AssetTypeOption
}

// CostPrice returns the average price of the side selected by the sign of the quantity.
func (p Position) CostPrice() *float64 {
	if p.Quantity < 0 {
		return p.AverageShortPrice
	}

	return p.AverageLongPrice
}

func (p Position) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("Position.Validate: %w: empty symbol", ErrInvariant)
	}

	if p.IsOption() {
		if p.PutCall != PutCallPut && p.PutCall != PutCallCall {
			return fmt.Errorf("Position.Validate: %w: option %s has put/call %q", ErrInvariant, p.Symbol, p.PutCall)
		}

		if p.StrikePrice == nil {
			return fmt.Errorf("Position.Validate: %w: option %s has no strike", ErrInvariant, p.Symbol)
		}
	} else if p.PutCall != PutCallNone {
		return fmt.Errorf("Position.Validate: %w: %s position %s has put/call %q", ErrInvariant, p.AssetType, p.Symbol, p.PutCall)
	}

	switch {
	case p.Quantity > 0 && p.AverageShortPrice != nil && *p.AverageShortPrice != 0:
		return fmt.Errorf("Position.Validate: %w: long position %s carries a short price", ErrInvariant, p.Symbol)
	case p.Quantity < 0 && p.AverageLongPrice != nil && *p.AverageLongPrice != 0:
		return fmt.Errorf("Position.Validate: %w: short position %s carries a long price", ErrInvariant, p.Symbol)
	}

	return nil
}

// SetExpiration records an expiration date and its MM/DD label. A zero date
// clears both.
func (p *Position) SetExpiration(date time.Time) {
	p.Expiration = date
	p.ExpirationDate = ""
	if !date.IsZero() {
		p.ExpirationDate = date.Format("01/02")
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
