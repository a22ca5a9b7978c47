package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	// MM/DD/YY or MM/DD/YYYY
	numericDatePattern = regexp.MustCompile(`\b(\d{2}/\d{2}/)(\d{4}|\d{2})\b`)
	// MMM DD 'YY, e.g. Jan 19 '24
	monthDatePattern = regexp.MustCompile(`\b([A-Za-z]{3})\s+(\d{1,2})\s+'(\d{2})\b`)
	dollarPattern    = regexp.MustCompile(`\$(\d+(?:\.\d+)?)`)
	numberPattern    = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\b`)
)

// ParseOptionDescription extracts the expiration (as MM/DD) and the strike from a
// free-text option description such as "TSLA Jan 19 '24 $240 Call" or
// "TSLA 240 Call 01/19/24 Equity". Either result is empty when it cannot be found;
// failures are logged, never returned.
func ParseOptionDescription(description string) (string, *float64) {
	expiration, strike := ParseOptionContract(description)
	if expiration.IsZero() {
		return "", strike
	}

	return expiration.Format("01/02"), strike
}

// ParseOptionContract is ParseOptionDescription with the full expiration date. The
// date is the zero time when none is found.
func ParseOptionContract(description string) (time.Time, *float64) {
	expiration, rest, err := parseExpiration(description)
	if err != nil {
		log.WithField("description", description).Warnf("ParseOptionDescription: %v", err)
	}

	strike, err := parseStrike(rest)
	if err != nil {
		log.WithField("description", description).Warnf("ParseOptionDescription: %v", err)
	}

	return expiration, strike
}

// parseExpiration returns the first matching date and the description with the
// matched text removed so that the day and year are not mistaken for a strike.
func parseExpiration(description string) (time.Time, string, error) {
	if loc := numericDatePattern.FindStringSubmatchIndex(description); loc != nil {
		layout := "01/02/06"
		if loc[5]-loc[4] == 4 {
			layout = "01/02/2006"
		}

		rest := description[:loc[0]] + " " + description[loc[1]:]
		date, err := time.Parse(layout, description[loc[0]:loc[1]])
		if err != nil {
			return time.Time{}, rest, fmt.Errorf("parseExpiration: invalid date %q: %w", description[loc[0]:loc[1]], err)
		}

		return date, rest, nil
	}

	if m := monthDatePattern.FindStringSubmatchIndex(description); m != nil {
		text := fmt.Sprintf("%s %s '%s", description[m[2]:m[3]], description[m[4]:m[5]], description[m[6]:m[7]])
		rest := description[:m[0]] + " " + description[m[1]:]
		date, err := time.Parse("Jan 2 '06", text)
		if err != nil {
			return time.Time{}, rest, fmt.Errorf("parseExpiration: invalid date %q: %w", text, err)
		}

		return date, rest, nil
	}

	return time.Time{}, description, nil
}

func parseStrike(text string) (*float64, error) {
	match := dollarPattern.FindStringSubmatch(text)
	if match == nil {
		match = numberPattern.FindStringSubmatch(strings.TrimSpace(text))
	}

	if match == nil {
		return nil, nil
	}

	strike, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil, fmt.Errorf("parseStrike: %w", err)
	}

	return &strike, nil
}
