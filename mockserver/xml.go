package mockserver

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
)

// marshalXML renders a generated mock body as XML. Maps become child
// elements (keys sorted for deterministic output), slices repeat an <item>
// element, and scalars are escaped text.
func marshalXML(root string, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeXMLElement(&buf, root, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXMLElement(buf *bytes.Buffer, name string, v any) error {
	fmt.Fprintf(buf, "<%s>", name)
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := writeXMLElement(buf, k, t[k]); err != nil {
				return err
			}
		}
	case []any:
		for _, e := range t {
			if err := writeXMLElement(buf, "item", e); err != nil {
				return err
			}
		}
	case nil:
	default:
		if err := xml.EscapeText(buf, []byte(fmt.Sprint(t))); err != nil {
			return err
		}
	}
	fmt.Fprintf(buf, "</%s>", name)
	return nil
}
