package fql

import (
	"encoding/json"
	"strings"

	"github.com/foliaquery/fql/internal/docmodel"
)

// renderResult converts a response selection into the requested wire
// format (§4.8, the tail of Query.__call__). "python" returns the elements
// themselves and "single-python" the lone element (or nil); every other
// format renders to a string.
func renderResult(format string, selection []docmodel.Element) (any, error) {
	if strings.HasPrefix(format, "single") {
		if len(selection) > 1 {
			return nil, newQueryError("a single response was expected, but multiple are returned")
		}
		switch format {
		case "single-xml":
			if len(selection) == 0 {
				return "", nil
			}
			return selection[0].XMLString(true), nil
		case "single-json":
			if len(selection) == 0 {
				return "null", nil
			}
			b, err := json.Marshal(selection[0].JSON())
			if err != nil {
				return nil, err
			}
			return string(b), nil
		case "single-python":
			if len(selection) == 0 {
				return nil, nil
			}
			return selection[0], nil
		default:
			return nil, newQueryError("invalid format: %s", format)
		}
	}

	switch format {
	case "xml":
		if len(selection) == 0 {
			return "<results></results>", nil
		}
		var b strings.Builder
		b.WriteString("<results>\n")
		for _, el := range selection {
			b.WriteString("<result>\n")
			b.WriteString(el.XMLString(true))
			b.WriteString("\n</result>\n")
		}
		b.WriteString("</results>\n")
		return b.String(), nil
	case "json":
		if len(selection) == 0 {
			return "[]", nil
		}
		payload := make([]any, len(selection))
		for i, el := range selection {
			payload[i] = el.JSON()
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case "python":
		return selection, nil
	default:
		return nil, newQueryError("invalid format: %s", format)
	}
}
