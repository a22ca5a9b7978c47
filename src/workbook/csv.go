package workbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
)

type positionRow struct {
	Provider       string  `csv:"provider"`
	Symbol         string  `csv:"symbol"`
	Description    string  `csv:"description"`
	AssetType      string  `csv:"asset_type"`
	PutCall        string  `csv:"put_call"`
	Quantity       float64 `csv:"quantity"`
	MarketValue    float64 `csv:"market_value"`
	AveragePrice   string  `csv:"average_price"`
	ExpirationDate string  `csv:"expiration_date"`
	StrikePrice    string  `csv:"strike_price"`
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}

	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ExportCSV writes the positions of groups, in worksheet order, to outFilePath.
func ExportCSV(outFilePath string, groups []eventmodels.SymbolGroup) error {
	var rows []*positionRow
	for _, g := range groups {
		for _, p := range g.Positions {
			rows = append(rows, &positionRow{
				Provider:       string(p.Provider),
				Symbol:         p.Symbol,
				Description:    p.Description,
				AssetType:      string(p.AssetType),
				PutCall:        string(p.PutCall),
				Quantity:       p.Quantity,
				MarketValue:    p.MarketValue,
				AveragePrice:   optional(p.AveragePrice),
				ExpirationDate: p.ExpirationDate,
				StrikePrice:    optional(p.StrikePrice),
			})
		}
	}

	file, err := os.Create(outFilePath)
	if err != nil {
		return fmt.Errorf("ExportCSV: failed to create file: %w", err)
	}
	defer file.Close()

	gocsv.SetCSVWriter(func(out io.Writer) *gocsv.SafeCSVWriter {
		return gocsv.NewSafeCSVWriter(csv.NewWriter(out))
	})

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("ExportCSV: failed to write to file: %w", err)
	}

	return nil
}
