package utils

import (
	"fmt"
	"regexp"
	"strings"
)

const maxSheetNameLength = 31

var forbiddenSheetChars = regexp.MustCompile(`[\\/*?:\[\]]`)

// SanitizeSheetName replaces the characters a worksheet title may not contain with
// '_' and truncates the result to the 31 characters a worksheet title allows.
func SanitizeSheetName(name string) string {
	name = forbiddenSheetChars.ReplaceAllString(name, "_")
	if name == "" {
		name = "_"
	}

	runes := []rune(name)
	if len(runes) > maxSheetNameLength {
		name = string(runes[:maxSheetNameLength])
	}

	return name
}

// SheetNamer hands out sanitized worksheet titles that are unique within one
// workbook, comparing case-insensitively.
type SheetNamer struct {
	used map[string]struct{}
}

func NewSheetNamer() *SheetNamer {
	return &SheetNamer{used: make(map[string]struct{})}
}

func (n *SheetNamer) Name(symbol string) string {
	base := SanitizeSheetName(symbol)
	name := base

	for i := 2; ; i++ {
		key := strings.ToLower(name)
		if _, taken := n.used[key]; !taken {
			n.used[key] = struct{}{}
			return name
		}

		suffix := fmt.Sprintf("_%d", i)
		runes := []rune(base)
		if len(runes)+len(suffix) > maxSheetNameLength {
			runes = runes[:maxSheetNameLength-len(suffix)]
		}
		name = string(runes) + suffix
	}
}
