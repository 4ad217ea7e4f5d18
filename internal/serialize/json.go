// Package serialize encodes the JSON bodies of outbound alert requests.
package serialize

import (
	"bytes"
	"encoding/json"
	"io"
)

// EncodeJSON writes v to w as a single JSON document without HTML escaping,
// so log text containing <, > or & reaches the alert unchanged.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// DecodeJSON reads one JSON document from data into dest.
func DecodeJSON(data []byte, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	return dec.Decode(dest)
}
