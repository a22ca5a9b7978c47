// Package service runs a provider end to end: authenticate, fetch, normalize,
// group and write the workbooks.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
	"github.com/jiaming2012/hedge-sheets/src/normalize"
	"github.com/jiaming2012/hedge-sheets/src/workbook"
)

var (
	ErrNoPositions = errors.New("no positions found")
	ErrNoAccounts  = errors.New("no accounts found")
)

// Pipeline turns the raw records of one account into its workbook.
type Pipeline struct {
	Normalizer *normalize.Normalizer
	Assembler  *workbook.Assembler
	Out        io.Writer
	Log        logrus.FieldLogger
}

func (p *Pipeline) Run(ctx context.Context, target workbook.Target, records []eventmodels.ProviderRecord) (string, error) {
	positions, currentPrices := p.Normalizer.NormalizeAll(records)
	if len(positions) == 0 {
		return "", fmt.Errorf("Pipeline.Run: %s: %w", target.Label(), ErrNoPositions)
	}

	if p.Out != nil {
		fmt.Fprintln(p.Out, positions.String())
	}

	groups := eventmodels.GroupBySymbol(positions)

	path, err := p.Assembler.Write(ctx, target, groups, currentPrices)
	if err != nil {
		return "", fmt.Errorf("Pipeline.Run: %w", err)
	}

	return path, nil
}

func (p *Pipeline) printf(format string, args ...any) {
	if p.Out != nil {
		fmt.Fprintf(p.Out, format, args...)
	}
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}

	return p.Log
}
