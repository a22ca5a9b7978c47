package auth

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var ErrRetryDeclined = errors.New("retry declined")

// Confirmer answers yes/no questions. The console implements it; tests script it.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// RetryPolicy bounds how often an authentication step is repeated. Every repeat
// needs a yes from Confirm. MaxAttempts <= 0 keeps asking until the user says no.
type RetryPolicy struct {
	MaxAttempts int
	Confirm     Confirmer
	Prompt      string
}

const defaultRetryPrompt = "Would you like to try authenticating again?"

// Do runs op until it succeeds, the attempts are used up or the user declines.
// The last error of op is returned, wrapped with ErrRetryDeclined when the user
// said no.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	prompt := p.Prompt
	if prompt == "" {
		prompt = defaultRetryPrompt
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}

		log.WithField("attempt", attempt).Warnf("RetryPolicy.Do: %v", err)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("RetryPolicy.Do: %w", ctxErr)
		}

		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return fmt.Errorf("RetryPolicy.Do: giving up after %d attempts: %w", attempt, err)
		}

		if p.Confirm == nil {
			return fmt.Errorf("RetryPolicy.Do: %w", err)
		}

		again, confirmErr := p.Confirm.Confirm(prompt)
		if confirmErr != nil {
			return fmt.Errorf("RetryPolicy.Do: failed to read confirmation: %v: %w", confirmErr, err)
		}

		if !again {
			return fmt.Errorf("RetryPolicy.Do: %w: %w", ErrRetryDeclined, err)
		}
	}
}
