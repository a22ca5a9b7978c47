package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
	"github.com/jiaming2012/hedge-sheets/src/utils"
)

func schwabAssetType(assetType string) eventmodels.AssetType {
	switch strings.ToUpper(assetType) {
	case "EQUITY", "COLLECTIVE_INVESTMENT":
		return eventmodels.AssetTypeEquity
	case "OPTION":
		return eventmodels.AssetTypeOption
	default:
		return eventmodels.AssetTypeOther
	}
}

// lookup evaluates a JSON path against a decoded document. ok is false when the path
// does not resolve or resolves to null.
func lookup(obj any, path string) (any, bool) {
	val, err := jsonpath.Get(path, obj)
	if err != nil || val == nil {
		return nil, false
	}

	// a path can resolve to a list of one answer; keep the first
	if list, isList := val.([]any); isList {
		if len(list) == 0 {
			return nil, false
		}
		val = list[0]
	}

	return val, true
}

func lookupString(obj any, path string) (string, bool) {
	val, ok := lookup(obj, path)
	if !ok {
		return "", false
	}

	s, ok := val.(string)
	return s, ok
}

func lookupFloat(obj any, path string) (*float64, error) {
	val, ok := lookup(obj, path)
	if !ok {
		return nil, nil
	}

	f, ok := val.(float64)
	if !ok {
		return nil, fmt.Errorf("%s is not a number: %v", path, val)
	}

	return &f, nil
}

func fromSchwab(raw json.RawMessage) (eventmodels.Position, error) {
	var obj any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return eventmodels.Position{}, fmt.Errorf("fromSchwab: failed to decode position: %w", err)
	}

	if _, ok := obj.(map[string]any); !ok {
		return eventmodels.Position{}, fmt.Errorf("fromSchwab: position is not an object")
	}

	if _, ok := lookup(obj, "$.instrument"); !ok {
		return eventmodels.Position{}, fmt.Errorf("fromSchwab: %w: instrument", eventmodels.ErrMissingField)
	}

	assetType, ok := lookupString(obj, "$.instrument.assetType")
	if !ok || assetType == "" {
		return eventmodels.Position{}, fmt.Errorf("fromSchwab: %w: instrument.assetType", eventmodels.ErrMissingField)
	}

	symbol, _ := lookupString(obj, "$.instrument.underlyingSymbol")
	if symbol == "" {
		symbol, _ = lookupString(obj, "$.instrument.symbol")
	}
	if symbol == "" {
		return eventmodels.Position{}, fmt.Errorf("fromSchwab: %w: instrument.symbol", eventmodels.ErrMissingField)
	}

	description, _ := lookupString(obj, "$.instrument.description")

	var numErr error
	number := func(path string) *float64 {
		v, err := lookupFloat(obj, path)
		if err != nil && numErr == nil {
			numErr = err
		}
		return v
	}

	longQuantity := number("$.longQuantity")
	shortQuantity := number("$.shortQuantity")
	marketValue := number("$.marketValue")
	averagePrice := number("$.averagePrice")
	averageLongPrice := number("$.averageLongPrice")
	averageShortPrice := number("$.averageShortPrice")
	strikePrice := number("$.instrument.strikePrice")
	if numErr != nil {
		return eventmodels.Position{}, fmt.Errorf("fromSchwab: %s: %w", symbol, numErr)
	}

	quantity := valueOrZero(longQuantity) - valueOrZero(shortQuantity)
	position := eventmodels.Position{
		Symbol:       symbol,
		Description:  description,
		RawAssetType: assetType,
		AssetType:    schwabAssetType(assetType),
		PutCall:      eventmodels.PutCallNone,
		Quantity:     quantity,
		MarketValue:  valueOrZero(marketValue),
		AveragePrice: averagePrice,
	}

	if position.AveragePrice == nil && quantity > 0 {
		position.AveragePrice = eventmodels.Float(position.MarketValue / quantity)
	}

	switch {
	case quantity > 0:
		position.AverageLongPrice = firstSet(averageLongPrice, position.AveragePrice)
	case quantity < 0:
		position.AverageShortPrice = firstSet(averageShortPrice, position.AveragePrice)
	}

	if position.AssetType == eventmodels.AssetTypeEquity && quantity != 0 && marketValue != nil {
		position.CurrentPrice = eventmodels.Float(*marketValue / quantity)
	}

	if position.AssetType != eventmodels.AssetTypeOption {
		return position, nil
	}

	putCall, _ := lookupString(obj, "$.instrument.putCall")
	position.PutCall = eventmodels.NewPutCall(putCall)

	expiration, parsedStrike := utils.ParseOptionContract(description)
	position.SetExpiration(expiration)
	position.StrikePrice = firstSet(strikePrice, parsedStrike)

	return position, nil
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}

func firstSet(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}

	return nil
}
