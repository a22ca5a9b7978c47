package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
)

func equity(symbol string, qty, price float64) eventmodels.Position {
	p := eventmodels.Position{
		Symbol:       symbol,
		AssetType:    eventmodels.AssetTypeEquity,
		PutCall:      eventmodels.PutCallNone,
		Quantity:     qty,
		AveragePrice: eventmodels.Float(price),
	}

	if qty < 0 {
		p.AverageShortPrice = eventmodels.Float(price)
	} else {
		p.AverageLongPrice = eventmodels.Float(price)
	}

	return p
}

func optionPosition(symbol string, putCall eventmodels.PutCall, expiration string, strike, qty, cost float64) eventmodels.Position {
	return eventmodels.Position{
		Symbol:         symbol,
		AssetType:      eventmodels.AssetTypeOption,
		PutCall:        putCall,
		Quantity:       qty,
		AveragePrice:   eventmodels.Float(cost),
		ExpirationDate: expiration,
		StrikePrice:    eventmodels.Float(strike),
	}
}

func group(positions ...eventmodels.Position) eventmodels.SymbolGroup {
	groups := eventmodels.GroupBySymbol(positions)
	if len(groups) != 1 {
		panic("expected one symbol")
	}

	return groups[0]
}

func render(t *testing.T, sheet Sheet) *excelize.File {
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	require.NoError(t, Render(f, sheet))

	return f
}

func calc(t *testing.T, f *excelize.File, sheet, ref string) float64 {
	raw, err := f.CalcCellValue(sheet, ref)
	require.NoError(t, err, ref)

	v, err := strconv.ParseFloat(raw, 64)
	require.NoError(t, err, "%s = %q", ref, raw)

	return v
}

func TestStrikeLadder(t *testing.T) {
	sheet := Build("XYZ", group(equity("XYZ", 100, 100)), Options{AccountLabel: "11111234", Increment: 1})
	f := render(t, sheet)

	assert.Equal(t, 100.0, calc(t, f, "XYZ", "A9"))
	for row := 10; row <= 44; row++ {
		assert.InDelta(t, float64(100+row-9), calc(t, f, "XYZ", "A"+strconv.Itoa(row)), 1e-9, "row %d", row)
	}
	assert.InDelta(t, 135.0, calc(t, f, "XYZ", "AB44"), 1e-9)

	t.Run("increment drives every row", func(t *testing.T) {
		sheet := Build("XYZ", group(equity("XYZ", 100, 100)), Options{Increment: 2.5})
		f := render(t, sheet)

		assert.InDelta(t, 102.5, calc(t, f, "XYZ", "A10"), 1e-9)
		assert.InDelta(t, 187.5, calc(t, f, "XYZ", "A44"), 1e-9)
	})

	t.Run("non-positive increment means one", func(t *testing.T) {
		sheet := Build("XYZ", group(equity("XYZ", 1, 10)), Options{})
		v, ok := sheet.Lookup("I3")
		require.True(t, ok)
		assert.Equal(t, Number(1), v)
	})
}

func TestPayoffFormulas(t *testing.T) {
	g := group(
		equity("XYZ", 100, 100),
		optionPosition("XYZ", eventmodels.PutCallCall, "01/19", 105, 2, 1.5),
		optionPosition("XYZ", eventmodels.PutCallPut, "01/19", 120, 1, 4.25),
	)
	f := render(t, Build("XYZ", g, Options{Increment: 1}))

	// A19 = 110
	assert.InDelta(t, 1000.0, calc(t, f, "XYZ", "C19"), 1e-9)
	assert.InDelta(t, 0.0, calc(t, f, "XYZ", "C13"), 1e-9)
	assert.InDelta(t, 1000.0, calc(t, f, "XYZ", "N19"), 1e-9)

	// puts pay below the strike on every row, not only row 10
	assert.InDelta(t, 1900.0, calc(t, f, "XYZ", "O10"), 1e-9)
	assert.InDelta(t, 1000.0, calc(t, f, "XYZ", "O19"), 1e-9)
	assert.InDelta(t, 0.0, calc(t, f, "XYZ", "O44"), 1e-9)
	assert.InDelta(t, 1000.0, calc(t, f, "XYZ", "Z19"), 1e-9)

	assert.InDelta(t, 11000.0, calc(t, f, "XYZ", "B19"), 1e-9)
	assert.InDelta(t, 13000.0, calc(t, f, "XYZ", "AA19"), 1e-9)

	// cost rows
	assert.InDelta(t, -300.0, calc(t, f, "XYZ", "C48"), 1e-9)
	assert.InDelta(t, -425.0, calc(t, f, "XYZ", "O48"), 1e-9)
	assert.InDelta(t, 10000.0, calc(t, f, "XYZ", "AA47"), 1e-9)
	assert.InDelta(t, -725.0, calc(t, f, "XYZ", "AA48"), 1e-9)
}

func TestLadderCapacity(t *testing.T) {
	var positions []eventmodels.Position
	for i := 0; i < 12; i++ {
		positions = append(positions, optionPosition("XYZ", eventmodels.PutCallCall, "02/16", float64(100+i), 1, 1))
	}
	for i := 0; i < 11; i++ {
		positions = append(positions, optionPosition("XYZ", eventmodels.PutCallPut, "02/16", float64(90-i), 1, 1))
	}

	sheet := Build("XYZ", group(positions...), Options{})

	strikes := func(from, to int) []float64 {
		var out []float64
		for col := from; col <= to; col++ {
			if v, ok := sheet.Lookup(cellName(col, 9)); ok {
				out = append(out, v.Number)
			}
		}
		return out
	}

	calls := strikes(3, 13)
	require.Len(t, calls, 11)
	assert.Equal(t, 100.0, calls[0])
	assert.Equal(t, 110.0, calls[10])
	assert.NotContains(t, calls, 111.0)

	puts := strikes(15, 25)
	require.Len(t, puts, 10)
	assert.Equal(t, 80.0, puts[0])
	assert.Equal(t, 89.0, puts[9])
	assert.NotContains(t, puts, 90.0)

	_, found := sheet.Lookup("Y9")
	assert.False(t, found)
	_, found = sheet.Lookup("N9")
	assert.False(t, found)

	render(t, sheet)
}

func TestEquityOnlyRoundTrip(t *testing.T) {
	sheet := Build("ABC", group(equity("ABC", 100, 50)), Options{AccountLabel: "TDA"})
	f := render(t, sheet)

	assert.Equal(t, 100.0, calc(t, f, "ABC", "B8"))
	assert.Equal(t, 50.0, calc(t, f, "ABC", "B9"))

	symbol, err := f.GetCellValue("ABC", "A3")
	require.NoError(t, err)
	assert.Equal(t, "ABC", symbol)

	label, err := f.GetCellValue("ABC", "A4")
	require.NoError(t, err)
	assert.Equal(t, "TDA", label)

	for _, col := range append(callSlots, putSlots...) {
		for _, row := range []int{7, 8, 9, 49} {
			value, err := f.GetCellValue("ABC", cellName(col, row))
			require.NoError(t, err)
			assert.Empty(t, value, cellName(col, row))
		}
	}

	_, found := sheet.Lookup("B3")
	assert.False(t, found, "no current price, no B3")
}

func TestSlotCells(t *testing.T) {
	missing := optionPosition("XYZ", eventmodels.PutCallCall, "", 0, -3, 0)
	missing.StrikePrice = nil
	missing.AveragePrice = nil

	g := group(
		equity("XYZ", -50, 20),
		optionPosition("XYZ", eventmodels.PutCallCall, "03/15", 25, -1, 0.75),
		missing,
	)
	sheet := Build("XYZ", g, Options{AccountLabel: "22225678", CurrentPrice: 21.5})

	expect := map[string]Value{
		"A4":  Text("5678"),
		"B3":  Number(21.5),
		"B8":  Number(-50),
		"B9":  Number(20),
		"C8":  Number(-3),
		"C9":  Text(NotAvailable),
		"C49": Text(NotAvailable),
		"D7":  Text("03/15"),
		"D8":  Number(-1),
		"D9":  Number(25),
		"D49": Number(0.75),
		"A9":  Formula("B9"),
		"A10": Formula("A9+$I$3"),
		"O20": Formula("IF($A20>$O$9,0,$O$8*($O$9-$A20)*100)"),
		"C20": Formula("IF($A20<$C$9,0,$C$8*($A20-$C$9)*100)"),
	}
	for ref, want := range expect {
		got, ok := sheet.Lookup(ref)
		require.True(t, ok, ref)
		assert.Equal(t, want, got, ref)
	}

	// an unknown expiration sorts first and leaves its cell empty
	_, found := sheet.Lookup("C7")
	assert.False(t, found)

	// A20 = 20 + 11
	f := render(t, sheet)
	assert.InDelta(t, -600.0, calc(t, f, "XYZ", "D20"), 1e-9)
}

func TestColumnNarrowing(t *testing.T) {
	g := group(
		optionPosition("XYZ", eventmodels.PutCallCall, "01/19", 105, 1, 1),
		optionPosition("XYZ", eventmodels.PutCallCall, "01/19", 110, 1, 1),
		optionPosition("XYZ", eventmodels.PutCallPut, "01/19", 95, 1, 1),
	)
	sheet := Build("XYZ", g, Options{})

	for col := 1; col <= LastColumn; col++ {
		want := DefaultColumnWidth
		switch {
		case col == 3 || col == 4 || col == 15:
		case reservedColumns[col]:
		case col >= 5 && col <= 24:
			want = NarrowColumnWidth
		}
		assert.Equal(t, want, sheet.ColumnWidths[col], columnName(col))
	}

	f := render(t, sheet)
	width, err := f.GetColWidth("XYZ", "E")
	require.NoError(t, err)
	assert.InDelta(t, NarrowColumnWidth, width, 1e-9)

	width, err = f.GetColWidth("XYZ", "M")
	require.NoError(t, err)
	assert.InDelta(t, DefaultColumnWidth, width, 1e-9)
}

func TestDriveUpload(t *testing.T) {
	var uploaded struct {
		path string
		body string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		uploaded.path = r.URL.Path
		uploaded.body = string(body)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "file-1", "name": "TDA.xlsx"})
	}))
	t.Cleanup(server.Close)

	srv, err := drive.NewService(context.Background(),
		option.WithHTTPClient(server.Client()),
		option.WithEndpoint(server.URL+"/"),
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "TDA.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("workbook-bytes"), 0o644))

	id, err := (&DriveUploader{srv: srv, folderID: "folder-9"}).Upload(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "file-1", id)
	assert.True(t, strings.HasSuffix(uploaded.path, "/files"), uploaded.path)
	assert.Contains(t, uploaded.body, "workbook-bytes")
	assert.Contains(t, uploaded.body, "folder-9")
}
