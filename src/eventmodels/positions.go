package eventmodels

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Positions []Position

func (positions Positions) String() string {
	display := &strings.Builder{}
	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(display)
	table.SetHeader([]string{"Symbol", "Type", "Put/Call", "Expiry", "Strike", "Qty", "Avg Price", "Mkt Value"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoWrapText(false)

	money := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("$%s", p.Sprintf("%.2f", *v))
	}

	for _, pos := range positions {
		putCall := ""
		if pos.PutCall != PutCallNone {
			putCall = string(pos.PutCall)
		}

		avgPrice := pos.AveragePrice
		if avgPrice == nil {
			avgPrice = pos.CostPrice()
		}

		table.Append([]string{
			pos.Symbol,
			string(pos.AssetType),
			putCall,
			pos.ExpirationDate,
			money(pos.StrikePrice),
			p.Sprintf("%v", pos.Quantity),
			money(avgPrice),
			money(&pos.MarketValue),
		})
	}

	table.Render()
	return display.String()
}
