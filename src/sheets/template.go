// Package sheets lays out the hedging worksheet of one underlying symbol and renders
// it into an xlsx workbook.
package sheets

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
)

// Grid geometry. Column numbers are 1-based, A = 1.
const (
	LastColumn = 28 // AB
	LastRow    = 49

	seedRow        = 9
	firstLadderRow = 10
	lastLadderRow  = 44

	expirationRow = 7
	quantityRow   = 8
	strikeRow     = 9
	costTotalRow  = 48
	costPerRow    = 49

	DefaultColumnWidth = 8 * 0.75
	NarrowColumnWidth  = DefaultColumnWidth / 3
	DefaultRowHeight   = 15 * 0.75

	NotAvailable = "N/A"
)

var (
	callSlots = columnRange(3, 13)  // C..M
	putSlots  = columnRange(15, 24) // O..X

	callPayoffColumns = columnRange(3, 13)  // C..M
	putPayoffColumns  = columnRange(15, 25) // O..Y

	borderRows = []int{4, 7, 9, 44}

	// never narrowed
	reservedColumns = map[int]bool{13: true, 14: true, 25: true, 26: true}
)

// CallCapacity and PutCapacity are the number of option slots per side. Options
// beyond capacity are dropped.
var (
	CallCapacity = len(callSlots)
	PutCapacity  = len(putSlots)
)

type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindFormula
)

// Value is the content of one cell. Formulas are stored without the leading '='.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
}

func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func Number(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

func Formula(format string, args ...any) Value {
	return Value{Kind: KindFormula, Text: fmt.Sprintf(format, args...)}
}

// NumberOrNA writes "N/A" where a number is expected but none is known.
func NumberOrNA(f *float64) Value {
	if f == nil {
		return Text(NotAvailable)
	}

	return Number(*f)
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindFormula:
		return "=" + v.Text
	default:
		return v.Text
	}
}

type Cell struct {
	Ref   string
	Value Value
}

// Sheet is the complete, renderer independent description of one worksheet.
type Sheet struct {
	Name         string
	Cells        []Cell
	ColumnWidths map[int]float64
	BorderRows   []int
	RowHeight    float64
}

// Lookup returns the value written to ref, if any.
func (s Sheet) Lookup(ref string) (Value, bool) {
	for i := len(s.Cells) - 1; i >= 0; i-- {
		if s.Cells[i].Ref == ref {
			return s.Cells[i].Value, true
		}
	}

	return Value{}, false
}

type Options struct {
	// AccountLabel is shown by its last four characters in A4.
	AccountLabel string
	// Increment is the strike ladder step. Values <= 0 mean 1.
	Increment float64
	// CurrentPrice is written to B3 when non-zero.
	CurrentPrice float64
}

// rowRule generates the cells of one column for every row in [from, to].
type rowRule struct {
	column int
	from   int
	to     int
	value  func(row int) Value
}

func ladderRules() []rowRule {
	rules := []rowRule{
		{column: 1, from: seedRow, to: seedRow, value: func(int) Value { return Formula("B%d", seedRow) }},
		{column: 1, from: firstLadderRow, to: lastLadderRow, value: func(r int) Value { return Formula("A%d+$I$3", r-1) }},
		{column: 2, from: firstLadderRow, to: lastLadderRow, value: func(r int) Value { return Formula("A%d*$B$8", r) }},
		{column: 14, from: firstLadderRow, to: lastLadderRow, value: func(r int) Value { return Formula("SUM(C%d:M%d)", r, r) }},
		{column: 26, from: firstLadderRow, to: lastLadderRow, value: func(r int) Value { return Formula("SUM(O%d:Y%d)", r, r) }},
		{column: 27, from: firstLadderRow, to: lastLadderRow, value: func(r int) Value { return Formula("SUM(N%d,Z%d,B%d)", r, r, r) }},
		{column: 28, from: firstLadderRow, to: lastLadderRow, value: func(r int) Value { return Formula("A%d", r) }},
	}

	for _, col := range callPayoffColumns {
		c := columnName(col)
		rules = append(rules, rowRule{column: col, from: firstLadderRow, to: lastLadderRow, value: func(r int) Value {
			return Formula("IF($A%d<$%s$9,0,$%s$8*($A%d-$%s$9)*100)", r, c, c, r, c)
		}})
	}

	for _, col := range putPayoffColumns {
		c := columnName(col)
		rules = append(rules, rowRule{column: col, from: firstLadderRow, to: lastLadderRow, value: func(r int) Value {
			return Formula("IF($A%d>$%s$9,0,$%s$8*($%s$9-$A%d)*100)", r, c, c, c, r)
		}})
	}

	for _, col := range append(callPayoffColumns, putPayoffColumns...) {
		c := columnName(col)
		rules = append(rules, rowRule{column: col, from: costTotalRow, to: costTotalRow, value: func(int) Value {
			return Formula("%s%d*-%s%d*100", c, costPerRow, c, quantityRow)
		}})
	}

	return rules
}

var labels = []Cell{
	{"A2", Text("Stock")},
	{"A8", Text("# of options")},
	{"A47", Text("total cost")},
	{"A48", Text("total cost")},
	{"A49", Text("cost per")},
	{"B5", Text("Net")},
	{"B6", Text("Underlying")},
	{"B7", Text("Position")},
	{"B47", Formula("B8*B9")},
	{"C4", Text("Calls")},
	{"I2", Text("Increment")},
	{"N5", Text("CALLS")},
	{"N6", Text("Total")},
	{"O4", Text("Puts")},
	{"Z5", Text("PUTS")},
	{"Z6", Text("Total")},
	{"AA5", Text("Grand")},
	{"AA6", Text("Total")},
	{"AA47", Formula("SUM(B47)")},
	{"AA48", Formula("SUM(A48:Z48)")},
	{"AB7", Text("/")},
	{"AB8", Text("# of Options")},
	{"AB9", Text("Strike Price")},
}

// Build lays out the worksheet of one symbol group.
func Build(name string, group eventmodels.SymbolGroup, opts Options) Sheet {
	increment := opts.Increment
	if increment <= 0 {
		increment = 1
	}

	sheet := Sheet{
		Name:         name,
		ColumnWidths: make(map[int]float64),
		BorderRows:   append([]int(nil), borderRows...),
		RowHeight:    DefaultRowHeight,
	}

	sheet.Cells = append(sheet.Cells, labels...)
	sheet.set(1, 3, Text(group.Symbol))
	sheet.set(1, 4, Text(eventmodels.LastDigits(opts.AccountLabel, 4)))
	sheet.set(9, 3, Number(increment))

	if opts.CurrentPrice != 0 {
		sheet.set(2, 3, Number(opts.CurrentPrice))
	}

	if quantity, price, ok := group.EquityReference(); ok {
		sheet.set(2, quantityRow, Number(quantity))
		sheet.set(2, strikeRow, Number(price))
	}

	for _, rule := range ladderRules() {
		for r := rule.from; r <= rule.to; r++ {
			sheet.set(rule.column, r, rule.value(r))
		}
	}

	used := make(map[int]bool)
	sheet.fillSlots(callSlots, group.Calls, used)
	sheet.fillSlots(putSlots, group.Puts, used)

	for col := 1; col <= LastColumn; col++ {
		sheet.ColumnWidths[col] = DefaultColumnWidth
	}
	narrowUnused(sheet.ColumnWidths, used, 3, 14)
	narrowUnused(sheet.ColumnWidths, used, 15, 25)

	return sheet
}

func (s *Sheet) fillSlots(slots []int, options []eventmodels.Position, used map[int]bool) {
	for i, option := range options {
		if i >= len(slots) {
			break
		}

		col := slots[i]
		if option.ExpirationDate != "" {
			s.set(col, expirationRow, Text(option.ExpirationDate))
		}
		s.set(col, quantityRow, Number(option.Quantity))
		s.set(col, strikeRow, NumberOrNA(option.StrikePrice))
		s.set(col, costPerRow, NumberOrNA(option.AveragePrice))
		used[col] = true
	}
}

func (s *Sheet) set(col, row int, v Value) {
	s.Cells = append(s.Cells, Cell{Ref: cellName(col, row), Value: v})
}

func narrowUnused(widths map[int]float64, used map[int]bool, from, to int) {
	for col := from; col <= to; col++ {
		if reservedColumns[col] || used[col] {
			continue
		}

		widths[col] = NarrowColumnWidth
	}
}

func columnRange(from, to int) []int {
	cols := make([]int, 0, to-from+1)
	for c := from; c <= to; c++ {
		cols = append(cols, c)
	}

	return cols
}

func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		panic(fmt.Sprintf("columnName: %v", err))
	}

	return name
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(fmt.Sprintf("cellName: %v", err))
	}

	return name
}
