// Package workbook writes one xlsx file per account with one worksheet per symbol.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
	"github.com/jiaming2012/hedge-sheets/src/sheets"
	"github.com/jiaming2012/hedge-sheets/src/utils"
)

var ErrNoSymbols = errors.New("workbook: no symbols to write")

// Target names the account a workbook belongs to. An empty AccountID means the
// provider has a single workbook.
type Target struct {
	Provider  eventmodels.ProviderTag
	AccountID string
}

func (t Target) FileName() string {
	return fmt.Sprintf("%s%s.xlsx", t.Provider, eventmodels.LastDigits(t.AccountID, 4))
}

// Label is what the worksheets show as the account.
func (t Target) Label() string {
	if t.AccountID == "" {
		return string(t.Provider)
	}

	return t.AccountID
}

type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

type Assembler struct {
	OutDir         string
	Increment      float64
	OpenAfterWrite bool
	Opener         func(path string) error
	ExportCSV      bool
	Uploader       Uploader
	Log            logrus.FieldLogger
}

func (a *Assembler) logger() logrus.FieldLogger {
	if a.Log == nil {
		return logrus.StandardLogger()
	}

	return a.Log
}

// Path returns where the workbook of target is written.
func (a *Assembler) Path(target Target) string {
	return filepath.Join(a.OutDir, target.FileName())
}

// Write renders groups into the workbook of target and saves it. ErrFileLocked is
// returned, and nothing is written, when another program holds the file open.
func (a *Assembler) Write(ctx context.Context, target Target, groups []eventmodels.SymbolGroup, currentPrices map[string]float64) (string, error) {
	if len(groups) == 0 {
		return "", fmt.Errorf("Write: %s: %w", target.FileName(), ErrNoSymbols)
	}

	path := a.Path(target)

	if a.OutDir != "" {
		if err := os.MkdirAll(a.OutDir, os.ModePerm); err != nil {
			return "", fmt.Errorf("Write: failed to create directory: %w", err)
		}
	}

	if err := checkLocked(path); err != nil {
		return "", fmt.Errorf("Write: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	namer := utils.NewSheetNamer()
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = namer.Name(g.Symbol)
	}

	// the first worksheet takes over the default one
	if err := f.SetSheetName(f.GetSheetName(0), names[0]); err != nil {
		return "", fmt.Errorf("Write: %w", err)
	}

	for i, g := range groups {
		sheet := sheets.Build(names[i], g, sheets.Options{
			AccountLabel: target.Label(),
			Increment:    a.Increment,
			CurrentPrice: currentPrices[g.Symbol],
		})

		if err := sheets.Render(f, sheet); err != nil {
			return "", fmt.Errorf("Write: %w", err)
		}
	}

	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		if isLockError(err) {
			return "", fmt.Errorf("Write: %w: %s", ErrFileLocked, path)
		}

		return "", fmt.Errorf("Write: failed to save %s: %w", path, err)
	}

	a.logger().WithFields(logrus.Fields{
		"path":   path,
		"sheets": len(names),
	}).Info("workbook written")

	if a.ExportCSV {
		csvPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
		if err := ExportCSV(csvPath, groups); err != nil {
			a.logger().Warnf("Write: %v", err)
		}
	}

	if a.Uploader != nil {
		if id, err := a.Uploader.Upload(ctx, path); err != nil {
			a.logger().Warnf("Write: upload failed: %v", err)
		} else {
			a.logger().WithField("file_id", id).Info("workbook uploaded")
		}
	}

	if a.OpenAfterWrite && a.Opener != nil {
		if err := a.Opener(path); err != nil {
			a.logger().Warnf("Write: failed to open %s: %v", path, err)
		}
	}

	return path, nil
}
