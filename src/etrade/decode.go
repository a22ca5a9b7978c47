package etrade

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// decodeElements decodes every element called name, at any depth of the document.
// Any syntax error fails the whole document.
func decodeElements[T any](body []byte, name string) ([]T, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))

	var (
		out     []T
		sawRoot bool
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decodeElements: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true

		if start.Name.Local != name {
			continue
		}

		var element T
		if err := decoder.DecodeElement(&element, &start); err != nil {
			return nil, fmt.Errorf("decodeElements: <%s>: %w", name, err)
		}

		out = append(out, element)
	}

	if !sawRoot {
		return nil, fmt.Errorf("decodeElements: no XML elements in document")
	}

	return out, nil
}
