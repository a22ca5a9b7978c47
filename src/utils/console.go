package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/browser"
)

// Console is the interactive terminal: numbered menus, confirmations and pauses.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

func NewStdConsole() *Console {
	return NewConsole(os.Stdin, os.Stdout)
}

func (c *Console) Out() io.Writer {
	return c.out
}

func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) Println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

// ReadLine prints prompt and returns the next input line without its line ending.
// io.EOF is returned only when no input was left at all.
func (c *Console) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(c.out, prompt)
	}

	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a y/n question. Only "y" or "yes" count as yes.
func (c *Console) Confirm(prompt string) (bool, error) {
	answer, err := c.ReadLine(fmt.Sprintf("%s (y/n): ", prompt))
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Pause waits for the user to acknowledge a message.
func (c *Console) Pause(prompt string) {
	if prompt == "" {
		prompt = "Press Enter to continue..."
	}

	c.ReadLine("\n" + prompt)
}

// Clear wipes the terminal using ANSI escape codes.
func (c *Console) Clear() {
	fmt.Fprint(c.out, "\033[H\033[2J")
}

// OpenURL opens a link in the default browser.
func OpenURL(url string) error {
	return browser.OpenURL(url)
}

// OpenFile opens a file with the program registered for its type.
func OpenFile(path string) error {
	return browser.OpenFile(path)
}
