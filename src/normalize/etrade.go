package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
	"github.com/jiaming2012/hedge-sheets/src/utils"
)

func etradeAssetType(securityType string) eventmodels.AssetType {
	switch strings.ToUpper(securityType) {
	case "EQUITY", "EQ":
		return eventmodels.AssetTypeEquity
	case "OPTN":
		return eventmodels.AssetTypeOption
	default:
		return eventmodels.AssetTypeOther
	}
}

func requiredText(field string, v *string) (string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "", fmt.Errorf("%w: %s", eventmodels.ErrMissingField, field)
	}

	return strings.TrimSpace(*v), nil
}

func requiredFloat(field string, v *string) (float64, error) {
	text, err := requiredText(field, v)
	if err != nil {
		return 0, err
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, text, err)
	}

	return f, nil
}

func fromEtrade(dto eventmodels.EtradePositionDTO) (eventmodels.Position, error) {
	if dto.Product == nil {
		return eventmodels.Position{}, fmt.Errorf("fromEtrade: %w: Product", eventmodels.ErrMissingField)
	}

	securityType, err := requiredText("securityType", dto.Product.SecurityType)
	if err != nil {
		return eventmodels.Position{}, fmt.Errorf("fromEtrade: %w", err)
	}

	symbol, err := requiredText("symbol", dto.Product.Symbol)
	if err != nil {
		return eventmodels.Position{}, fmt.Errorf("fromEtrade: %w", err)
	}

	quantity, err := requiredFloat("quantity", dto.Quantity)
	if err != nil {
		return eventmodels.Position{}, fmt.Errorf("fromEtrade: %s: %w", symbol, err)
	}

	pricePaid, err := requiredFloat("pricePaid", dto.PricePaid)
	if err != nil {
		return eventmodels.Position{}, fmt.Errorf("fromEtrade: %s: %w", symbol, err)
	}

	lastTrade, err := requiredFloat("lastTrade", dto.LastTrade())
	if err != nil {
		return eventmodels.Position{}, fmt.Errorf("fromEtrade: %s: %w", symbol, err)
	}

	description := ""
	if dto.SymbolDescription != nil {
		description = strings.TrimSpace(*dto.SymbolDescription)
	}

	position := eventmodels.Position{
		Symbol:       symbol,
		Description:  description,
		RawAssetType: securityType,
		AssetType:    etradeAssetType(securityType),
		PutCall:      eventmodels.PutCallNone,
		Quantity:     quantity,
		MarketValue:  lastTrade * quantity,
		AveragePrice: eventmodels.Float(pricePaid),
		CurrentPrice: eventmodels.Float(lastTrade),
	}

	switch {
	case quantity > 0:
		position.AverageLongPrice = eventmodels.Float(pricePaid)
		position.AverageShortPrice = eventmodels.Float(0)
	case quantity < 0:
		position.AverageLongPrice = eventmodels.Float(0)
		position.AverageShortPrice = eventmodels.Float(pricePaid)
	default:
		position.AverageLongPrice = eventmodels.Float(0)
		position.AverageShortPrice = eventmodels.Float(0)
	}

	if position.AssetType != eventmodels.AssetTypeOption {
		return position, nil
	}

	strike, err := requiredFloat("strikePrice", dto.Product.StrikePrice)
	if err != nil {
		return eventmodels.Position{}, fmt.Errorf("fromEtrade: %s: %w", symbol, err)
	}

	callPut, err := requiredText("callPut", dto.Product.CallPut)
	if err != nil {
		return eventmodels.Position{}, fmt.Errorf("fromEtrade: %s: %w", symbol, err)
	}

	position.StrikePrice = eventmodels.Float(strike)
	position.PutCall = eventmodels.NewPutCall(callPut)
	position.SetExpiration(etradeExpiration(dto.Product, description))

	return position, nil
}

// etradeExpiration reads the structured expiry fields (year, month and day as
// YYYY-MM-DD) and falls back to the description when they are absent or unusable.
func etradeExpiration(product *eventmodels.EtradeProductDTO, description string) time.Time {
	if product.ExpiryYear != nil && product.ExpiryMonth != nil && product.ExpiryDay != nil {
		year, yErr := strconv.Atoi(strings.TrimSpace(*product.ExpiryYear))
		month, mErr := strconv.Atoi(strings.TrimSpace(*product.ExpiryMonth))
		day, dErr := strconv.Atoi(strings.TrimSpace(*product.ExpiryDay))

		if yErr == nil && mErr == nil && dErr == nil {
			iso := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
			if date, err := time.Parse("2006-01-02", iso); err == nil {
				return date
			}
		}
	}

	expiration, _ := utils.ParseOptionContract(description)
	return expiration
}
