// Package menu is the interactive front end: provider choice, then account choice.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
	"github.com/jiaming2012/hedge-sheets/src/service"
	"github.com/jiaming2012/hedge-sheets/src/utils"
)

type SchwabRunner interface {
	Run(ctx context.Context) (string, error)
}

type ETradeRunner interface {
	Login(ctx context.Context) error
	Accounts() []eventmodels.Account
	Process(ctx context.Context, accounts []eventmodels.Account) []service.AccountResult
}

// App builds a provider's service only when it is chosen, so missing credentials
// of one provider never block the other.
type App struct {
	Console   *utils.Console
	NewSchwab func() (SchwabRunner, error)
	NewETrade func() (ETradeRunner, error)
	Log       logrus.FieldLogger
}

func (a *App) logger() logrus.FieldLogger {
	if a.Log == nil {
		return logrus.StandardLogger()
	}

	return a.Log
}

// Run shows the main menu until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		a.Console.Clear()
		a.Console.Println("\nOptions Trading Spreadsheet Updater")
		a.Console.Println("===================================")
		a.Console.Println("1. Update TDA Spreadsheets")
		a.Console.Println("2. Update E*TRADE Spreadsheets")
		a.Console.Println("3. Exit")
		a.Console.Println("===================================")

		choice, err := a.Console.ReadLine("\nEnter your choice (1-3): ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("Run: %w", err)
		}

		switch strings.TrimSpace(choice) {
		case "1":
			a.Console.Clear()
			a.Console.Println("\nUpdating TDA Spreadsheets...")
			if err := a.phase("TDA", func() error { return a.runSchwab(ctx) }); err == nil {
				a.Console.Println("\nTDA spreadsheet update completed successfully!")
			}
			a.Console.Pause("")
		case "2":
			a.Console.Clear()
			a.Console.Println("\nInitializing E*TRADE connection...")
			a.phase("E*TRADE", func() error { return a.runETrade(ctx) })
			a.Console.Pause("")
		case "3":
			a.Console.Println("\nExiting program. Goodbye!")
			return nil
		default:
			a.Console.Println("\nInvalid choice. Please enter 1, 2, or 3.")
			a.Console.Pause("")
		}
	}
}

// phase runs one menu action. Errors and panics are reported and end the action,
// never the program.
func (a *App) phase(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
		}

		if err != nil {
			a.logger().WithField("phase", name).Errorf("phase: %v", err)
			a.Console.Printf("An error occurred while processing %s spreadsheets: %v\n", name, err)
		}
	}()

	return fn()
}

func (a *App) runSchwab(ctx context.Context) error {
	svc, err := a.NewSchwab()
	if err != nil {
		return err
	}

	_, err = svc.Run(ctx)
	return err
}

func (a *App) runETrade(ctx context.Context) error {
	svc, err := a.NewETrade()
	if err != nil {
		return err
	}

	if err := svc.Login(ctx); err != nil {
		return err
	}

	accounts := svc.Accounts()
	for {
		a.Console.Clear()
		a.Console.Println("\nE*TRADE Account Selection")
		a.Console.Println("===================================")
		a.Console.Println("0. Update All Accounts")
		for i, account := range accounts {
			a.Console.Printf("%d. Update Account ending in %s\n", i+1, account.Suffix())
		}
		a.Console.Printf("%d. Back to Main Menu\n", len(accounts)+1)
		a.Console.Println("===================================")

		line, err := a.Console.ReadLine("\nEnter your choice: ")
		if err != nil {
			return err
		}

		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			a.Console.Println("Invalid input. Please enter a number.")
			a.Console.Pause("")
			continue
		}

		var selected []eventmodels.Account
		switch {
		case choice == 0:
			selected = accounts
		case choice == len(accounts)+1:
			return nil
		case choice >= 1 && choice <= len(accounts):
			selected = accounts[choice-1 : choice]
		default:
			a.Console.Println("Invalid choice. Please try again.")
			a.Console.Pause("")
			continue
		}

		svc.Process(ctx, selected)

		a.Console.Println("\nE*TRADE spreadsheet update completed!")
		a.Console.Pause("Press Enter to return to account selection...")
	}
}
