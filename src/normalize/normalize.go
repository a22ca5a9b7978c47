// Package normalize turns provider specific position records into
// eventmodels.Position values.
package normalize

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jiaming2012/hedge-sheets/src/eventmodels"
)

type Normalizer struct {
	log logrus.FieldLogger
}

func New(logger logrus.FieldLogger) *Normalizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Normalizer{log: logger}
}

// Normalize converts one record, dispatching on its provider tag.
func (n *Normalizer) Normalize(record eventmodels.ProviderRecord) (eventmodels.Position, error) {
	var (
		position eventmodels.Position
		err      error
	)

	switch record.Provider {
	case eventmodels.ProviderETrade:
		if record.ETrade == nil {
			return position, fmt.Errorf("Normalize: %w: empty %s record", eventmodels.ErrMissingField, record.Provider)
		}
		position, err = fromEtrade(*record.ETrade)
	case eventmodels.ProviderSchwab:
		position, err = fromSchwab(record.Schwab)
	default:
		return position, fmt.Errorf("Normalize: %w: %q", eventmodels.ErrUnknownProvider, record.Provider)
	}

	if err != nil {
		return eventmodels.Position{}, err
	}

	position.Provider = record.Provider
	if err := position.Validate(); err != nil {
		return eventmodels.Position{}, fmt.Errorf("Normalize: %w", err)
	}

	return position, nil
}

// NormalizeAll converts a batch. Records that cannot be converted are logged and
// skipped. The returned map holds the current price of every equity position that
// has one.
func (n *Normalizer) NormalizeAll(records []eventmodels.ProviderRecord) (eventmodels.Positions, map[string]float64) {
	positions := make(eventmodels.Positions, 0, len(records))
	currentPrices := make(map[string]float64)

	for i, record := range records {
		position, err := n.Normalize(record)
		if err != nil {
			n.log.WithFields(logrus.Fields{
				"provider": record.Provider,
				"index":    i,
			}).Warnf("skipping position: %v", err)
			continue
		}

		if position.AssetType == eventmodels.AssetTypeEquity && position.CurrentPrice != nil {
			currentPrices[position.Symbol] = *position.CurrentPrice
		}

		positions = append(positions, position)
	}

	return positions, currentPrices
}
