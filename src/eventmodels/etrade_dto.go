package eventmodels

import (
	"fmt"
	"strings"
)

type EtradeAccountDTO struct {
	AccountID    *string `xml:"accountId"`
	AccountIDKey *string `xml:"accountIdKey"`
	AccountDesc  string  `xml:"accountDesc"`
}

func (dto EtradeAccountDTO) ToModel() (*Account, error) {
	if dto.AccountID == nil || strings.TrimSpace(*dto.AccountID) == "" {
		return nil, fmt.Errorf("EtradeAccountDTO.ToModel: %w: accountId", ErrMissingField)
	}

	if dto.AccountIDKey == nil || strings.TrimSpace(*dto.AccountIDKey) == "" {
		return nil, fmt.Errorf("EtradeAccountDTO.ToModel: %w: accountIdKey", ErrMissingField)
	}

	return &Account{
		ID:  strings.TrimSpace(*dto.AccountID),
		Key: strings.TrimSpace(*dto.AccountIDKey),
	}, nil
}

// EtradePositionDTO mirrors a <Position> element of the portfolio response. Fields
// are pointers so that an absent element can be told apart from an empty one.
type EtradePositionDTO struct {
	SymbolDescription *string           `xml:"symbolDescription"`
	Quantity          *string           `xml:"quantity"`
	PricePaid         *string           `xml:"pricePaid"`
	MarketValue       *string           `xml:"marketValue"`
	Product           *EtradeProductDTO `xml:"Product"`
	Quick             *EtradeQuoteDTO   `xml:"Quick"`
	Complete          *EtradeQuoteDTO   `xml:"Complete"`
}

type EtradeProductDTO struct {
	Symbol       *string `xml:"symbol"`
	SecurityType *string `xml:"securityType"`
	CallPut      *string `xml:"callPut"`
	ExpiryYear   *string `xml:"expiryYear"`
	ExpiryMonth  *string `xml:"expiryMonth"`
	ExpiryDay    *string `xml:"expiryDay"`
	StrikePrice  *string `xml:"strikePrice"`
}

type EtradeQuoteDTO struct {
	LastTrade *string `xml:"lastTrade"`
}

// LastTrade prefers the quick view and falls back to the complete view.
func (dto EtradePositionDTO) LastTrade() *string {
	if dto.Quick != nil && dto.Quick.LastTrade != nil {
		return dto.Quick.LastTrade
	}

	if dto.Complete != nil {
		return dto.Complete.LastTrade
	}

	return nil
}
