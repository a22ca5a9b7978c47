package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/hedge-sheets/src/auth"
	"github.com/jiaming2012/hedge-sheets/src/config"
	"github.com/jiaming2012/hedge-sheets/src/etrade"
	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
	"github.com/jiaming2012/hedge-sheets/src/logger"
	"github.com/jiaming2012/hedge-sheets/src/menu"
	"github.com/jiaming2012/hedge-sheets/src/normalize"
	"github.com/jiaming2012/hedge-sheets/src/schwab"
	"github.com/jiaming2012/hedge-sheets/src/service"
	"github.com/jiaming2012/hedge-sheets/src/sheets"
	"github.com/jiaming2012/hedge-sheets/src/utils"
	"github.com/jiaming2012/hedge-sheets/src/workbook"
)

type RunArgs struct {
	Config config.Config
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/hedgesheets/main.go",
	Short: "Build options hedging workbooks from E*TRADE and Schwab positions",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			log.Fatalf("error loading config: %v", err)
		}

		if err := Run(RunArgs{Config: cfg}); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func Run(args RunArgs) error {
	cfg := args.Config

	baseLogger, err := logger.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	runLog := logger.WithRun(baseLogger)

	ctx := context.Background()
	console := utils.NewStdConsole()

	assembler := &workbook.Assembler{
		OutDir:         cfg.Output.Dir,
		Increment:      cfg.Sheet.StrikeIncrement,
		OpenAfterWrite: cfg.Output.OpenAfterWrite,
		Opener:         utils.OpenFile,
		ExportCSV:      cfg.Output.ExportCSV,
		Log:            runLog,
	}

	if cfg.Output.DriveFolderID != "" {
		uploader, err := sheets.NewDriveUploaderFromEnv(ctx, cfg.Output.DriveFolderID)
		if err != nil {
			runLog.Warnf("Drive upload disabled: %v", err)
		} else {
			assembler.Uploader = uploader
		}
	}

	pipeline := &service.Pipeline{
		Normalizer: normalize.New(runLog),
		Assembler:  assembler,
		Out:        console.Out(),
		Log:        runLog,
	}

	retry := auth.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Confirm:     console,
	}

	app := &menu.App{
		Console: console,
		Log:     runLog,
		NewSchwab: func() (menu.SchwabRunner, error) {
			creds, err := config.SchwabCredentialsFromEnv()
			if err != nil {
				return nil, err
			}

			if cfg.Schwab.AccountHash == "" {
				return nil, fmt.Errorf("missing schwab.account_hash in config")
			}

			authenticator := &schwab.Authenticator{
				AppKey:      creds.AppKey,
				AppSecret:   creds.AppSecret,
				CallbackURL: creds.CallbackURL,
				BaseURL:     cfg.Schwab.BaseURL,
				TokenFile:   cfg.Schwab.TokenFile,
				Prompt:      console,
				OpenURL:     utils.OpenURL,
				Out:         console.Printf,
			}

			return &service.SchwabService{
				Connect: func(ctx context.Context, useExisting bool) (eventmodels.RawPositionSource, error) {
					httpClient, err := authenticator.Authenticate(ctx, useExisting)
					if err != nil {
						return nil, err
					}

					return schwab.AccountSource{
						Client:      schwab.NewClient(httpClient, cfg.Schwab.BaseURL, runLog),
						AccountHash: cfg.Schwab.AccountHash,
					}, nil
				},
				Retry:    retry,
				Pipeline: pipeline,
			}, nil
		},
		NewETrade: func() (menu.ETradeRunner, error) {
			creds, err := config.ETradeCredentialsFromEnv()
			if err != nil {
				return nil, err
			}

			authenticator := &etrade.Authenticator{
				ConsumerKey:    creds.ConsumerKey,
				ConsumerSecret: creds.ConsumerSecret,
				BaseURL:        creds.BaseURL,
				AuthorizeURL:   cfg.ETrade.AuthorizeURL,
				Prompt:         console,
				OpenURL:        utils.OpenURL,
				Out:            console.Printf,
			}

			return &service.ETradeService{
				Connect: func(ctx context.Context) (service.ETradeAPI, error) {
					httpClient, err := authenticator.Authenticate(ctx)
					if err != nil {
						return nil, err
					}

					return etrade.NewClient(httpClient, creds.BaseURL, runLog), nil
				},
				AllowList: cfg.ETrade.Accounts,
				Retry:     retry,
				Pipeline:  pipeline,
				Pause:     console.Pause,
			}, nil
		},
	}

	// the menu blocks on terminal input, so an interrupt ends the process directly
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\nProgram terminated by user.")
		os.Exit(0)
	}()

	runLog.Debug("starting menu")

	return app.Run(ctx)
}

func main() {
	runCmd.Execute()
}
