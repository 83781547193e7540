package output

import (
	"encoding/json"
	"github.com/go-errors/errors"
	"io"
)

// PrintJSON outputs the value as indented JSON
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	err := enc.Encode(v)
	if err != nil {
		return errors.WrapPrefix(err, "Could not JSON encode output", 0)
	}

	return nil
}
