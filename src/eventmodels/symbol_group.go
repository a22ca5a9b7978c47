package eventmodels

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// SymbolGroup holds every position of one underlying symbol.
type SymbolGroup struct {
	Symbol    string
	Positions []Position
	Equities  []Position
	Calls     []Position
	Puts      []Position
}

// EquityReference returns the net underlying quantity and the cost price of the
// side that quantity sits on. ok is false when the group holds no equity rows.
func (g SymbolGroup) EquityReference() (quantity float64, price float64, ok bool) {
	if len(g.Equities) == 0 {
		return 0, 0, false
	}

	for _, p := range g.Equities {
		quantity += p.Quantity
	}

	var prices []float64
	for _, p := range g.Equities {
		if (quantity < 0) != (p.Quantity < 0) {
			continue
		}

		if cost := p.CostPrice(); cost != nil {
			prices = append(prices, *cost)
		}
	}

	if len(prices) == 0 {
		return quantity, 0, true
	}

	mean, err := stats.Mean(prices)
	if err != nil {
		return quantity, 0, true
	}

	return quantity, mean, true
}

// GroupBySymbol partitions positions by symbol. Groups are ordered with purely
// numeric symbols after all others and lexically within each class; option rows
// are ordered by expiration then strike. The result does not depend on the order
// of the input.
func GroupBySymbol(positions []Position) []SymbolGroup {
	index := make(map[string]int)
	var groups []SymbolGroup

	for _, p := range positions {
		i, found := index[p.Symbol]
		if !found {
			i = len(groups)
			index[p.Symbol] = i
			groups = append(groups, SymbolGroup{Symbol: p.Symbol})
		}

		g := &groups[i]
		g.Positions = append(g.Positions, p)

		switch {
		case p.AssetType == AssetTypeEquity:
			g.Equities = append(g.Equities, p)
		case p.IsOption() && p.PutCall == PutCallCall:
			g.Calls = append(g.Calls, p)
		case p.IsOption() && p.PutCall == PutCallPut:
			g.Puts = append(g.Puts, p)
		}
	}

	for i := range groups {
		sortPositions(groups[i].Positions)
		sortPositions(groups[i].Equities)
		sortPositions(groups[i].Calls)
		sortPositions(groups[i].Puts)
	}

	sort.Slice(groups, func(i, j int) bool {
		return symbolLess(groups[i].Symbol, groups[j].Symbol)
	})

	return groups
}

func symbolLess(a, b string) bool {
	na, nb := IsNumericSymbol(a), IsNumericSymbol(b)
	if na != nb {
		return nb
	}

	return a < b
}

func IsNumericSymbol(symbol string) bool {
	if symbol == "" {
		return false
	}

	for _, c := range symbol {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

func sortPositions(positions []Position) {
	sort.SliceStable(positions, func(i, j int) bool {
		return positionLess(positions[i], positions[j])
	})
}

// positionLess orders by (expiration, strike) and breaks the remaining ties on the
// other fields so that equal keys from different inputs still land in one order.
func positionLess(a, b Position) bool {
	if !a.Expiration.Equal(b.Expiration) {
		return a.Expiration.Before(b.Expiration)
	}

	if a.ExpirationDate != b.ExpirationDate {
		return a.ExpirationDate < b.ExpirationDate
	}

	if sa, sb := strikeKey(a), strikeKey(b); sa != sb {
		return sa < sb
	}

	if a.AssetType != b.AssetType {
		return a.AssetType < b.AssetType
	}

	if a.PutCall != b.PutCall {
		return a.PutCall < b.PutCall
	}

	if a.Quantity != b.Quantity {
		return a.Quantity < b.Quantity
	}

	if a.Description != b.Description {
		return a.Description < b.Description
	}

	return priceKey(a.AveragePrice) < priceKey(b.AveragePrice)
}

func strikeKey(p Position) float64 {
	return priceKey(p.StrikePrice)
}

func priceKey(v *float64) float64 {
	if v == nil {
		return math.Inf(1)
	}

	return *v
}
